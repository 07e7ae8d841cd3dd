package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecCommandPrintsBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		if r.Header.Get("X-Trace") != "abc" {
			t.Errorf("missing X-Trace header")
		}
		_, _ = io.WriteString(w, "  {\"value\":{\"sessionId\":\"s1\"}}  ")
	}))
	defer srv.Close()

	t.Setenv("JOURNAL_TYPE", "bbolt")
	t.Setenv("JOURNAL_PATH", filepath.Join(t.TempDir(), "journal.db"))
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"wdhttp", "exec", "-d", `{"capabilities":{}}`, "-H", "X-Trace: abc", "POST", srv.URL + "/session"})
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if strings.TrimSpace(out.String()) != `{"value":{"sessionId":"s1"}}` {
		t.Fatalf("output = %q", out.String())
	}
	if gotBody != `{"capabilities":{}}` {
		t.Fatalf("server received %q", gotBody)
	}

	out.Reset()
	if err := newApp(&out).Run([]string{"wdhttp", "history", "-n", "5"}); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), srv.URL+"/session") || !strings.Contains(out.String(), "POST") {
		t.Fatalf("history output missing exchange:\n%s", out.String())
	}
}

func TestExecCommandRequiresArguments(t *testing.T) {
	t.Setenv("JOURNAL_TYPE", "none")

	var out bytes.Buffer
	if err := newApp(&out).Run([]string{"wdhttp", "exec", "GET"}); err == nil {
		t.Fatalf("expected error for missing url")
	}
}

func TestExecCommandRejectsBadHeader(t *testing.T) {
	t.Setenv("JOURNAL_TYPE", "none")

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"wdhttp", "exec", "-H", "nocolon", "GET", "http://127.0.0.1:1"})
	if err == nil || !strings.Contains(err.Error(), "invalid header") {
		t.Fatalf("expected invalid header error, got %v", err)
	}
}
