package main

import (
	"encoding/json"
	"testing"
)

func TestListsCreateAddAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"lists", "create", "Weekend Picks"}, env.configPath)
	if err != nil {
		t.Fatalf("lists create: %v", err)
	}
	requireContains(t, out, "Created list weekend-picks")

	out, _, err = runCLI(t, []string{"add", "weekend-picks", "949"}, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "at rank 1")

	if _, _, err := runCLI(t, []string{"add", "weekend-picks", "949"}, env.configPath); err == nil {
		t.Fatal("expected duplicate add to fail")
	}

	out, _, err = runCLI(t, []string{"add", "weekend-picks", "Alien", "--year", "1979"}, env.configPath)
	if err != nil {
		t.Fatalf("add by title: %v", err)
	}
	requireContains(t, out, "Added 348")

	out, _, err = runCLI(t, []string{"lists", "show", "weekend-picks"}, env.configPath)
	if err != nil {
		t.Fatalf("lists show: %v", err)
	}
	requireContains(t, out, "Weekend Picks (2 items)")
	requireContains(t, out, "Heat")
	requireContains(t, out, "Michael Mann")

	out, _, err = runCLI(t, []string{"--json", "lists"}, env.configPath)
	if err != nil {
		t.Fatalf("lists --json: %v", err)
	}
	var lists []struct {
		ID        string `json:"id"`
		ItemCount int    `json:"itemCount"`
	}
	if err := json.Unmarshal([]byte(out), &lists); err != nil {
		t.Fatalf("decode lists json: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != "weekend-picks" {
		t.Fatalf("unexpected lists: %+v", lists)
	}
}

func TestRemoveAndReplaceMemberships(t *testing.T) {
	env := setupCLITestEnv(t)

	mustRun(t, env, "lists", "create", "Picks")
	mustRun(t, env, "add", "picks", "949", "--rank", "3")

	out := mustRun(t, env, "replace", "picks", "949", "348")
	requireContains(t, out, "Replaced 949 with 348 in picks at rank 3")

	out = mustRun(t, env, "remove", "picks", "348")
	requireContains(t, out, "Removed 348 from picks")

	if _, _, err := runCLI(t, []string{"remove", "picks", "348"}, env.configPath); err == nil {
		t.Fatal("expected removing a missing membership to fail")
	}
}

func TestListsDeleteUnknownList(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"lists", "delete", "nope"}, env.configPath)
	if err == nil {
		t.Fatal("expected error deleting unknown list")
	}
	requireContains(t, describeError(err), "cinefile lists")
}

func mustRun(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, args, env.configPath)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}
