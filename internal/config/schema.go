package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// OptionType is the expected type of a configuration value.
type OptionType string

const (
	TypeString   OptionType = "string"
	TypeBool     OptionType = "bool"
	TypeInt      OptionType = "int"
	TypeUint     OptionType = "uint"
	TypeFloat    OptionType = "float"
	TypeDuration OptionType = "duration"
)

// ConfigOption declares a single configuration option.
type ConfigOption struct {
	// Key is the option name as written in the file.
	Key         string
	Type        OptionType
	Default     string
	Description string
	// Section is "" for global options, or a command name.
	Section string
	// EnvVar, if set, overrides the file value.
	EnvVar string
}

// ConfigSchema is the set of known options, used for validation, typed
// lookups and `config schema` output.
type ConfigSchema struct {
	options   []*ConfigOption
	byKey     map[string]*ConfigOption
	bySection map[string]map[string]*ConfigOption
}

// NewSchema creates a new empty ConfigSchema.
func NewSchema() *ConfigSchema {
	return &ConfigSchema{
		byKey:     make(map[string]*ConfigOption),
		bySection: make(map[string]map[string]*ConfigOption),
	}
}

// Register adds opt. A later registration of the same key in the same
// section replaces the earlier one.
func (s *ConfigSchema) Register(opt ConfigOption) {
	ref := &opt
	s.options = append(s.options, ref)
	if opt.Section == "" {
		s.byKey[opt.Key] = ref
		return
	}
	if s.bySection[opt.Section] == nil {
		s.bySection[opt.Section] = make(map[string]*ConfigOption)
	}
	s.bySection[opt.Section][opt.Key] = ref
}

func (s *ConfigSchema) RegisterAll(opts []ConfigOption) {
	for _, opt := range opts {
		s.Register(opt)
	}
}

// Lookup returns the option for key in section ("" for global), or nil.
func (s *ConfigSchema) Lookup(section, key string) *ConfigOption {
	if section == "" {
		return s.byKey[key]
	}
	return s.bySection[section][key]
}

// IsKnown reports whether key may appear in section. Global keys are allowed
// in every section.
func (s *ConfigSchema) IsKnown(section, key string) bool {
	return s.Lookup(section, key) != nil || s.byKey[key] != nil
}

// GlobalOptions returns the global options in registration order.
func (s *ConfigSchema) GlobalOptions() []ConfigOption {
	return s.SectionOptions("")
}

// SectionOptions returns the options of one section in registration order.
func (s *ConfigSchema) SectionOptions(section string) []ConfigOption {
	var out []ConfigOption
	for _, o := range s.options {
		if o.Section == section {
			out = append(out, *o)
		}
	}
	return out
}

// Sections returns the sorted non-global section names.
func (s *ConfigSchema) Sections() []string {
	out := make([]string, 0, len(s.bySection))
	for sec := range s.bySection {
		out = append(out, sec)
	}
	slices.Sort(out)
	return out
}

// Resolve returns the effective global value of key: its environment
// variable, then the config file, then the schema default.
func (s *ConfigSchema) Resolve(c *Config, key string) string {
	opt := s.Lookup("", key)
	if opt != nil && opt.EnvVar != "" {
		if v, ok := os.LookupEnv(opt.EnvVar); ok {
			return v
		}
	}
	if c != nil {
		if v, ok := c.GetGlobalOption(key); ok {
			return v
		}
	}
	if opt != nil {
		return opt.Default
	}
	return ""
}

// ValidateConfig returns sorted human-readable problems: unknown options and
// values that do not parse as their declared type.
func ValidateConfig(c *Config, s *ConfigSchema) []string {
	var issues []string

	for key, value := range c.Global {
		opt := s.Lookup("", key)
		if opt == nil {
			issues = append(issues, fmt.Sprintf("unknown global option: %q (value: %q)", key, value))
			continue
		}
		if err := validateType(opt.Type, value); err != nil {
			issues = append(issues, fmt.Sprintf("global option %q: %v", key, err))
		}
	}

	for section, opts := range c.Commands {
		for key, value := range opts {
			opt := s.Lookup(section, key)
			if opt == nil {
				opt = s.Lookup("", key)
			}
			if opt == nil {
				issues = append(issues, fmt.Sprintf("unknown option for command %q: %q (value: %q)", section, key, value))
				continue
			}
			if err := validateType(opt.Type, value); err != nil {
				issues = append(issues, fmt.Sprintf("option %q in [%s]: %v", key, section, err))
			}
		}
	}

	slices.Sort(issues)
	return issues
}

func validateType(t OptionType, value string) error {
	var err error
	switch t {
	case TypeString, "":
	case TypeBool:
		_, err = parseBool(value)
	case TypeInt:
		_, err = strconv.Atoi(value)
	case TypeUint:
		_, err = strconv.ParseUint(value, 10, 64)
	case TypeFloat:
		_, err = strconv.ParseFloat(value, 64)
	case TypeDuration:
		_, err = time.ParseDuration(value)
	default:
		return fmt.Errorf("unknown option type %q", t)
	}
	if err != nil {
		return fmt.Errorf("expected %s, got %q", t, value)
	}
	return nil
}

// FormatHelp renders every option, globals first, then each section.
func (s *ConfigSchema) FormatHelp() string {
	var b strings.Builder
	if globals := s.GlobalOptions(); len(globals) > 0 {
		b.WriteString("Global Options:\n")
		for _, o := range globals {
			writeOptionHelp(&b, o)
		}
	}
	for _, sec := range s.Sections() {
		fmt.Fprintf(&b, "\n[%s] Options:\n", sec)
		for _, o := range s.SectionOptions(sec) {
			writeOptionHelp(&b, o)
		}
	}
	return b.String()
}

func writeOptionHelp(b *strings.Builder, o ConfigOption) {
	fmt.Fprintf(b, "  %-30s %s", o.Key, o.Description)
	var parts []string
	if o.Type != "" && o.Type != TypeString {
		parts = append(parts, "type: "+string(o.Type))
	}
	if o.Default != "" {
		parts = append(parts, "default: "+o.Default)
	}
	if o.EnvVar != "" {
		parts = append(parts, "env: "+o.EnvVar)
	}
	if len(parts) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")
}

// DefaultSchema declares every option passgen understands.
func DefaultSchema() *ConfigSchema {
	s := NewSchema()
	s.RegisterAll(defaultGlobalOptions())
	s.RegisterAll(defaultCommandOptions())
	return s
}

func defaultGlobalOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "log.level", Type: TypeString, Default: "info", Description: "Log level: debug, info, warn, error", EnvVar: "PASSGEN_LOG_LEVEL"},
		{Key: "log.format", Type: TypeString, Default: "", Description: "Stderr log format: text or json (auto when empty)"},
		{Key: "log.file", Type: TypeString, Default: "", Description: "JSON log file path", EnvVar: "PASSGEN_LOG_FILE"},
		{Key: "log.max-size-mb", Type: TypeInt, Default: "10", Description: "Log file size in MB before rotation"},
		{Key: "log.max-files", Type: TypeInt, Default: "5", Description: "Rotated log files to keep"},

		{Key: "passing.num-to-optimize", Type: TypeInt, Default: "40", Description: "Population size after regeneration"},
		{Key: "passing.num-to-keep", Type: TypeInt, Default: "10", Description: "Distinct candidates kept after pruning"},
		{Key: "passing.space-weight", Type: TypeFloat, Default: "0.1", Description: "Optimizer step weight for receiver position (m)"},
		{Key: "passing.speed-weight", Type: TypeFloat, Default: "0.1", Description: "Optimizer step weight for pass speed (m/s)"},
		{Key: "passing.time-weight", Type: TypeFloat, Default: "0.05", Description: "Optimizer step weight for start time (s)"},
		{Key: "passing.merge-tolerance", Type: TypeFloat, Default: "1", Description: "Duplicate distance as a multiple of the step weights"},
		{Key: "passing.min-speed", Type: TypeFloat, Default: "1", Description: "Minimum pass speed (m/s)"},
		{Key: "passing.max-speed", Type: TypeFloat, Default: "5.5", Description: "Maximum pass speed (m/s)"},
		{Key: "passing.min-start-delay", Type: TypeDuration, Default: "200ms", Description: "Earliest sampled pass start after the world time"},
		{Key: "passing.max-start-delay", Type: TypeDuration, Default: "3s", Description: "Latest pass start after the world time"},
		{Key: "passing.iteration-period", Type: TypeDuration, Default: "0s", Description: "Minimum time between optimizer iterations"},
		{Key: "passing.rating-expr", Type: TypeString, Default: "", Description: "Expression combining static, friendly, enemy, timing and region", EnvVar: "PASSGEN_RATING_EXPR"},
		{Key: "passing.seed", Type: TypeUint, Default: "", Description: "Fixed random seed (random when empty)", EnvVar: "PASSGEN_SEED"},

		{Key: "tactic.tick-interval", Type: TypeDuration, Default: "16ms", Description: "Executor tick interval"},
	}
}

func defaultCommandOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "scenario", Section: "simulate", Type: TypeString, Default: "open-field", Description: "Built-in scenario name or file path"},
		{Key: "ticks", Section: "simulate", Type: TypeInt, Default: "60", Description: "Ticks to run"},
		{Key: "format", Section: "simulate", Type: TypeString, Default: "text", Description: "Output format: text or json"},

		{Key: "scenario", Section: "rate", Type: TypeString, Default: "open-field", Description: "Built-in scenario name or file path"},
		{Key: "format", Section: "rate", Type: TypeString, Default: "text", Description: "Output format: text or json"},
	}
}
