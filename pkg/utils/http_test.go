package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONWriteSetsLength(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := JSONWrite(rec, http.StatusOK, []string{"a"}); err != nil {
		t.Fatalf("JSONWrite: %v", err)
	}
	if got := rec.Body.String(); got != `["a"]` {
		t.Fatalf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "5" {
		t.Fatalf("content-length = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type = %q", got)
	}
}

func TestJSONWriteUnsupportedValue(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := JSONWrite(rec, http.StatusOK, make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Fatalf("nothing should be written on error, got %d %q", rec.Code, rec.Body.String())
	}
}
