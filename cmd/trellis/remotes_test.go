package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	in := RemotesConfig{
		Active: "prod",
		Remotes: map[string]Remote{
			"prod":  {URL: "https://trellis.example.com", GRPCAddr: "trellis.example.com:9090", Token: "tok_abc", NATSURL: "nats://prod:4222"},
			"local": {URL: "http://localhost:8080"},
		},
	}
	if err := saveRemotesConfig(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Active != "prod" {
		t.Errorf("Active = %q, want %q", got.Active, "prod")
	}
	if prod := got.Remotes["prod"]; prod != in.Remotes["prod"] {
		t.Errorf("prod remote = %+v, want %+v", prod, in.Remotes["prod"])
	}
}

func TestLoadRemotesConfig_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadRemotesConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Active != "" || len(cfg.Remotes) != 0 {
		t.Errorf("expected empty config, got %+v", cfg)
	}
	if cfg.Remotes == nil {
		t.Error("Remotes map must not be nil after load")
	}
}

func TestSaveRemotesConfig_Permissions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := saveRemotesConfig(RemotesConfig{Remotes: map[string]Remote{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	path, _ := remoteConfigPath()
	check := func(p string, want os.FileMode) {
		t.Helper()
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s permissions = %04o, want %04o", p, got, want)
		}
	}
	check(path, 0o600)
	check(filepath.Dir(path), 0o700)
}

func TestRemoteLifecycle(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// add, upsert, use, list, remove
	mustRun(t, "remote", "add", "local", "http://localhost:8080", "--grpc", "localhost:9090")
	mustRun(t, "remote", "add", "local", "http://localhost:8081")
	mustRun(t, "remote", "use", "local")

	cfg, _ := loadRemotesConfig()
	if cfg.Active != "local" {
		t.Fatalf("Active = %q, want %q", cfg.Active, "local")
	}
	if cfg.Remotes["local"].URL != "http://localhost:8081" {
		t.Fatalf("upsert did not replace url: %+v", cfg.Remotes["local"])
	}

	out := mustRun(t, "remote", "list")
	if !strings.Contains(out, "* local") {
		t.Errorf("list missing active marker; got:\n%s", out)
	}

	if _, err := runCLI(t, "", "remote", "use", "missing"); err == nil {
		t.Error("use of unknown remote should fail")
	}

	mustRun(t, "remote", "remove", "local")
	cfg, _ = loadRemotesConfig()
	if _, ok := cfg.Remotes["local"]; ok {
		t.Error("remote 'local' should be gone")
	}
	if cfg.Active != "" {
		t.Errorf("Active should be cleared, got %q", cfg.Active)
	}
}

func TestRemoteList_MasksToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	mustRun(t, "remote", "add", "prod", "https://trellis.example.com", "--token", "tok_verylongsecret")
	out := mustRun(t, "remote", "list")
	if strings.Contains(out, "tok_verylongsecret") {
		t.Errorf("list leaked full token:\n%s", out)
	}
	if !strings.Contains(out, "tok_very...") {
		t.Errorf("list missing masked token:\n%s", out)
	}

	cfg, _ := loadRemotesConfig()
	if cfg.Remotes["prod"].Token != "tok_verylongsecret" {
		t.Errorf("stored token = %q", cfg.Remotes["prod"].Token)
	}
}

func TestMaskToken(t *testing.T) {
	for in, want := range map[string]string{
		"":             "",
		"short":        "short",
		"exactly8":     "exactly8",
		"longer_token": "longer_t...",
	} {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
