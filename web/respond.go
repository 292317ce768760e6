package web

import (
	"context"
	"encoding/json"
	"net/http"

	"urlsave/web/errs"
)

// RespondJSON to an HTTP request, setting the status code and body if any.
// A nil data value writes the status code with an empty body.
func RespondJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) error {
	SetStatusCode(ctx, statusCode)

	if statusCode == http.StatusNoContent || data == nil {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondError writes a structured JSON error response using the
// status code and message from the given *errs.Error.
func RespondError(ctx context.Context, w http.ResponseWriter, err *errs.Error) error {
	return RespondJSON(ctx, w, err.Code, err)
}
