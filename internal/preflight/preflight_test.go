package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cinefile/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTMDB_OK(t *testing.T) {
	srv := testsupport.NewTMDBServer(t, testsupport.FakeMovie{ID: 1, Title: "The Thing"})
	result := CheckTMDB(context.Background(), srv.URL, "test")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTMDB_BadKey(t *testing.T) {
	srv := testsupport.NewTMDBServer(t)
	result := CheckTMDB(context.Background(), srv.URL, "wrong")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckTMDB_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	result := CheckTMDB(context.Background(), srv.URL, "key")
	if result.Passed || result.Detail != "request failed (502)" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckTMDB_MissingKey(t *testing.T) {
	result := CheckTMDB(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestRunAllSkipsDisabledSync(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 checks, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if r.Name == "Sync database" {
			t.Fatal("sync check should be skipped when disabled")
		}
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("expected directory checks to pass: %+v", results)
	}
	if !Failed(results) {
		t.Fatal("expected TMDB check without a key to fail")
	}
}

func TestCheckSyncMissingUser(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Sync.Enabled = true
	cfg.Sync.DatabaseURL = "postgres://localhost:1/none"
	result := CheckSync(context.Background(), cfg)
	if result.Passed || result.Detail != "user_id missing" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
