package server

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"8080":  ":8080",
		":9090": ":9090",
	}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestNewHTTPServer_WriteTimeout(t *testing.T) {
	srv := newHTTPServer(":0", http.NotFoundHandler(), 0)
	if srv.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("expected default write timeout, got %v", srv.WriteTimeout)
	}
	srv = newHTTPServer(":0", http.NotFoundHandler(), 45*time.Second)
	if srv.WriteTimeout != 45*time.Second {
		t.Fatalf("expected 45s write timeout, got %v", srv.WriteTimeout)
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	if err := (&Server{}).Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on idle server: %v", err)
	}
}
