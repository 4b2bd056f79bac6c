package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBackupExportImportAndWipe(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRun(t, env, "lists", "create", "Picks")
	mustRun(t, env, "add", "picks", "949")
	mustRun(t, env, "movie", "rate", "949", "9")

	target := filepath.Join(t.TempDir(), "backups", "cinefile.json")
	out := mustRun(t, env, "backup", "export", "--output", target)
	requireContains(t, out, "Exported 1 movies, 2 lists, 2 list items")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected backup at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"wipe"}, env.configPath); err == nil {
		t.Fatal("expected wipe without --yes to fail")
	}
	mustRun(t, env, "wipe", "--yes")
	out = mustRun(t, env, "lists")
	requireContains(t, out, "No lists yet")

	out = mustRun(t, env, "backup", "import", target, "--clear")
	requireContains(t, out, "Restored 1 movies, 2 lists, 2 list items")

	out = mustRun(t, env, "movie", "show", "949")
	requireContains(t, out, "My rating: 9.0")
}

func TestSyncDisabledByDefault(t *testing.T) {
	env := setupCLITestEnv(t)
	out := mustRun(t, env, "sync")
	requireContains(t, out, "Sync is disabled")
	out = mustRun(t, env, "sync", "push")
	requireContains(t, out, "Sync is disabled")
}
