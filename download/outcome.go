package download

import (
	"encoding/json"
	"fmt"
)

// Kind classifies a failure for logs. It never appears in the wire payload.
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindForbidden  Kind = "forbidden"
	KindNetwork    Kind = "network"
	KindHTTP       Kind = "http"
	KindFilesystem Kind = "filesystem"
	KindCancelled  Kind = "cancelled"
	KindInternal   Kind = "internal"
)

// Outcome is the single structured record produced for one transfer.
// Exactly one of the success or failure shapes is serialized, never both.
type Outcome struct {
	OK          bool
	Kind        Kind
	FilePath    string
	FileSize    int64
	ContentType string
	URL         string
	StatusCode  int
	Err         string
}

// Success reports a completed transfer. A statusCode of 0 means the file
// was already present and nothing was fetched.
func Success(filePath string, fileSize int64, contentType, rawURL string, statusCode int) Outcome {
	return Outcome{
		OK:          true,
		FilePath:    filePath,
		FileSize:    fileSize,
		ContentType: contentType,
		URL:         rawURL,
		StatusCode:  statusCode,
	}
}

// Failure reports a transfer that broke before any response arrived, so the
// payload carries only the reason.
func Failure(kind Kind, reason string) Outcome {
	return Outcome{Kind: kind, Err: reason}
}

// ResponseFailure reports a transfer that broke after a response was
// obtained, so the payload additionally carries the URL and status code.
func ResponseFailure(kind Kind, reason, rawURL string, statusCode int) Outcome {
	return Outcome{
		Kind:       kind,
		URL:        rawURL,
		StatusCode: statusCode,
		Err:        reason,
	}
}

// MarshalJSON renders the outcome in its external shape. Success always
// carries all five metadata fields; failure carries the reason plus the
// URL and status code only when they are set.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.OK {
		return json.Marshal(struct {
			Success     bool   `json:"success"`
			FilePath    string `json:"filePath"`
			FileSize    int64  `json:"fileSize"`
			ContentType string `json:"contentType"`
			URL         string `json:"url"`
			StatusCode  int    `json:"statusCode"`
		}{true, o.FilePath, o.FileSize, o.ContentType, o.URL, o.StatusCode})
	}

	return json.Marshal(struct {
		Success    bool   `json:"success"`
		Error      string `json:"error"`
		URL        string `json:"url,omitempty"`
		StatusCode int    `json:"statusCode,omitempty"`
	}{false, o.Err, o.URL, o.StatusCode})
}

// Payload renders the outcome as the indented JSON document that travels
// in a tool result's text content.
func (o Outcome) Payload() (string, error) {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding outcome: %w", err)
	}

	return string(b), nil
}
