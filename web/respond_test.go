package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"urlsave/web"
)

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := web.RespondJSON(context.Background(), w, http.StatusOK, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("RespondJSON: %v", err)
	}

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want %q", ct, "application/json")
	}
	if w.Body.String() != `{"k":"v"}` {
		t.Fatalf("body = %q, want %q", w.Body.String(), `{"k":"v"}`)
	}
}

func TestRespondJSON_NoContent(t *testing.T) {
	w := httptest.NewRecorder()

	err := web.RespondJSON(context.Background(), w, http.StatusNoContent, map[string]string{"ignored": "yes"})
	if err != nil {
		t.Fatalf("RespondJSON: %v", err)
	}

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", w.Body.String())
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	err := web.RespondJSON(context.Background(), w, http.StatusAccepted, nil)
	if err != nil {
		t.Fatalf("RespondJSON: %v", err)
	}

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", w.Body.String())
	}
}
