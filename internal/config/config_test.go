package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigParsing(t *testing.T) {
	content := `# Global options
log.level debug
passing.num-to-keep   8

[simulate]
ticks 120
format json

[rate]
`
	cfg, err := LoadFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if v, ok := cfg.GetGlobalOption("log.level"); !ok || v != "debug" {
		t.Errorf("log.level = %q (exists %v)", v, ok)
	}
	if v, _ := cfg.GetGlobalOption("passing.num-to-keep"); v != "8" {
		t.Errorf("passing.num-to-keep = %q, want trimmed 8", v)
	}
	if v, ok := cfg.GetCommandOption("simulate", "ticks"); !ok || v != "120" {
		t.Errorf("simulate.ticks = %q (exists %v)", v, ok)
	}
	if v, ok := cfg.GetCommandOption("simulate", "log.level"); !ok || v != "debug" {
		t.Errorf("simulate falls back to global log.level, got %q (exists %v)", v, ok)
	}
	if _, ok := cfg.Commands["rate"]; !ok {
		t.Error("empty [rate] section should still be recorded")
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", cfg.Warnings)
	}
}

func TestConfigWarnings(t *testing.T) {
	content := `colour blue
passing.space-weight fast
[simulate]
ticks many
bogus 1
`
	cfg, err := LoadFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	want := []string{
		`global option "passing.space-weight": expected float, got "fast"`,
		`option "ticks" in [simulate]: expected int, got "many"`,
		`unknown global option: "colour" (value: "blue")`,
		`unknown option for command "simulate": "bogus" (value: "1")`,
	}
	if len(cfg.Warnings) != len(want) {
		t.Fatalf("warnings = %q, want %q", cfg.Warnings, want)
	}
	for i := range want {
		if cfg.Warnings[i] != want[i] {
			t.Errorf("warning %d = %q, want %q", i, cfg.Warnings[i], want[i])
		}
	}
}

func TestSetGlobalAndCommandOptions(t *testing.T) {
	cfg := NewConfig()
	cfg.SetGlobalOption("log.level", "warn")
	cfg.SetCommandOption("simulate", "log.level", "debug")
	if v, _ := cfg.GetCommandOption("simulate", "log.level"); v != "debug" {
		t.Fatalf("section value should shadow global, got %q", v)
	}
	if v, _ := cfg.GetCommandOption("rate", "log.level"); v != "warn" {
		t.Fatalf("missing section should fall back to global, got %q", v)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromPath(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(cfg.Global) != 0 {
		t.Fatalf("missing file should load empty, got %v", cfg.Global)
	}

	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("passing.seed 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if v, _ := cfg.GetGlobalOption("passing.seed"); v != "42" {
		t.Fatalf("passing.seed = %q", v)
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(path, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if _, err := LoadFromPath(link); err == nil || !strings.Contains(err.Error(), "symlink") {
		t.Fatalf("expected symlink rejection, got %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(EnvConfig, "/tmp/custom-passgen")
	p, err := GetConfigPath()
	if err != nil || p != "/tmp/custom-passgen" {
		t.Fatalf("GetConfigPath = %q, %v", p, err)
	}

	home := t.TempDir()
	t.Setenv(EnvConfig, "")
	t.Setenv("HOME", home)
	p, err = GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".passgen", "config"); p != want {
		t.Fatalf("GetConfigPath = %q, want %q", p, want)
	}
}
