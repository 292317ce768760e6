package download

import (
	"errors"
	"hash"
	"io"
)

// Option defines optional settings for a single Save call.
//
// WithChecksum enables checksum validation of the downloaded file. h is a
// hash.Hash instance (e.g. sha256.New()), and expected is the hex-encoded
// expected checksum string. On mismatch the written file is removed.
//
// WithProgressLogging enables periodic transfer progress logging via the
// Downloader's logger.
//
// WithTee copies every written chunk to w as it lands, letting a caller
// drive a progress bar or similar sink without touching the file path.
//
// WithSkipExisting short-circuits Save when the destination file already
// exists: no fetch happens and the outcome describes the file on disk.
type Option func(*options) error

type options struct {
	checksum     *checksumVerifier
	tee          io.Writer
	progress     bool
	skipExisting bool
}

func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

func WithProgressLogging() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

func WithTee(w io.Writer) Option {
	return func(opts *options) error {
		if w == nil {
			return errors.New("tee writer must not be nil")
		}

		opts.tee = w
		return nil
	}
}

func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}
