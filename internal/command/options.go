package command

import (
	"fmt"
	"strconv"

	"github.com/joeycumines/passgen/internal/config"
	"github.com/joeycumines/passgen/internal/passing"
	"github.com/joeycumines/passgen/internal/scenario"
)

// sectionOption resolves a per-command option: the flag value if non-empty,
// then the [section] or global value from cfg, then the schema default.
func sectionOption(cfg *config.Config, section, key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v, ok := cfg.GetCommandOption(section, key); ok {
		return v
	}
	if opt := config.DefaultSchema().Lookup(section, key); opt != nil {
		return opt.Default
	}
	return ""
}

func sectionInt(cfg *config.Config, section, key string, flagValue int) (int, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	v := sectionOption(cfg, section, key, "")
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: %s must be a positive integer, got %q", section, key, v)
	}
	return n, nil
}

func checkFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid output format: %q", format)
	}
}

// loadScenario resolves a built-in name or a JSON file path.
func loadScenario(cfg *config.Config, section, flagValue string) (scenario.Scenario, error) {
	return scenario.Resolve(sectionOption(cfg, section, "scenario", flagValue))
}

// passingOptions builds generator options from configuration, with seed
// overriding passing.seed when non-negative.
func passingOptions(cfg *config.Config, seed int64) ([]passing.Option, error) {
	pc, err := config.PassingConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := []passing.Option{passing.WithConfig(pc)}
	if seed >= 0 {
		return append(opts, passing.WithSeed(uint64(seed))), nil
	}
	s, ok, err := config.Seed(cfg)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, passing.WithSeed(s))
	}
	return opts, nil
}
