package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"urlsave/download"
	"urlsave/fetch"
	"urlsave/pathpolicy"
)

func newFetchCmd() *cobra.Command {
	var (
		sha256sum    string
		skipExisting bool
		noRedirects  bool
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "fetch URL PATH",
		Short: "Download one URL straight to a file",
		Long: `Download one URL straight to a file.

PATH is resolved against the same base directory the server uses, with the
same containment rules. The transfer outcome is printed as JSON on stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			var extra []fetch.Option
			if noRedirects {
				extra = append(extra, fetch.WithNoFollowRedirects())
			}
			client, err := newFetchClient(cfg, log, extra...)
			if err != nil {
				return err
			}

			dest := pathpolicy.New(nil, log).Resolve(args[1])
			if !dest.Permitted {
				return fmt.Errorf("path %q is outside the base directory %q", args[1], dest.BaseDir)
			}

			var opts []download.Option
			if sha256sum != "" {
				opts = append(opts, download.WithChecksum(sha256.New(), sha256sum))
			}
			if skipExisting {
				opts = append(opts, download.WithSkipExisting())
			}
			if cfg.ProgressLogs {
				opts = append(opts, download.WithProgressLogging())
			}
			if !quiet {
				bar := newTransferBar(args[0])
				defer func() { _ = bar.Close() }()
				opts = append(opts, download.WithTee(bar))
			}

			outcome := download.New(client, log).Save(cmd.Context(), args[0], dest.AbsPath, opts...)

			payload, err := outcome.Payload()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)

			if !outcome.OK {
				return errors.New("transfer failed")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&sha256sum, "sha256", "", "Hex-encoded SHA-256 checksum the downloaded bytes must match")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Do nothing when the destination file already exists")
	cmd.Flags().BoolVar(&noRedirects, "no-follow-redirects", false, "Fail on HTTP redirects instead of following them")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Disable the progress bar")

	return cmd
}

// newTransferBar builds a byte-counting spinner on stderr. The body length
// is unknown until the response arrives, so the bar runs without a total.
func newTransferBar(url string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(url),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
