package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinefile/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	dataDir    string
	tmdb       *testsupport.TMDBServer
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("CINEFILE_SYNC_DATABASE_URL", "")

	tmdb := testsupport.NewTMDBServer(t,
		testsupport.FakeMovie{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", VoteCount: 7000, VoteAverage: 7.9, Runtime: 170, Genres: []string{"Crime"}, Directors: []string{"Michael Mann"}},
		testsupport.FakeMovie{ID: 348, Title: "Alien", ReleaseDate: "1979-05-25", VoteCount: 14000, VoteAverage: 8.1, Runtime: 117, Genres: []string{"Horror"}, Directors: []string{"Ridley Scott"}},
	)

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(homeDir, ".config", "cinefile", "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		tmdb:       tmdb,
	}
	if err := os.MkdirAll(filepath.Dir(env.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, env.configPath, env.dataDir, filepath.Join(base, "logs"), tmdb.URL)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path, dataDir, logDir, tmdbURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[tmdb]
api_key = "test"
base_url = %q
min_request_interval_ms = 0

[seed]
enabled = false

[top_list]
debounce_ms = 0

[logging]
level = "error"
`, dataDir, logDir, tmdbURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func appendConfig(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append config: %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
