package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

func TestSetKeyInFile(t *testing.T) {
	for _, tc := range []struct {
		name, before, key, value, after string
	}{
		{"new file", "", "log.level", "debug", "log.level debug\n"},
		{"replace", "# c\nlog.level info\n", "log.level", "warn", "# c\nlog.level warn\n"},
		{"append", "log.level info\n", "passing.seed", "5", "log.level info\npassing.seed 5\n"},
		{"before section", "log.level info\n[simulate]\nticks 3\n", "passing.seed", "5", "log.level info\npassing.seed 5\n[simulate]\nticks 3\n"},
		{"section key untouched", "[simulate]\nticks 3\n", "ticks", "9", "ticks 9\n[simulate]\nticks 3\n"},
		{"empty value", "log.file /tmp/x\n", "log.file", "", "log.file\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", "config")
			if tc.before != "" {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(tc.before), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if err := SetKeyInFile(path, tc.key, tc.value); err != nil {
				t.Fatalf("SetKeyInFile: %v", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.after {
				t.Fatalf("got %q, want %q", got, tc.after)
			}
		})
	}
}

func TestSetKeyInFile_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	keys := []string{"log.level", "log.file", "passing.seed", "passing.num-to-keep", "tactic.tick-interval"}
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Go(func() {
			if err := SetKeyInFile(path, key, strconv.Itoa(i)); err != nil {
				t.Error(err)
			}
		})
	}
	wg.Wait()

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	for i, key := range keys {
		if v, ok := cfg.GetGlobalOption(key); !ok || v != strconv.Itoa(i) {
			t.Errorf("%s = %q (exists %v), want %d", key, v, ok, i)
		}
	}
}
