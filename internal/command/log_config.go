package command

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/joeycumines/passgen/internal/config"
	"github.com/joeycumines/passgen/internal/logging"
)

// logFlags are the logging flags shared by commands that run the generator.
type logFlags struct {
	file   string
	level  string
	format string
}

func (f *logFlags) setup(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Path to a JSON log file (rotated by size)")
	fs.StringVar(&f.level, "log-level", "", "Log level: debug, info, warn, error")
	fs.StringVar(&f.format, "log-format", "", "Stderr log format: text or json")
}

// resolveLogConfig merges flags over configuration. Each setting comes from
// its flag when given, then its environment variable, then the config file,
// then the schema default.
func resolveLogConfig(f logFlags, cfg *config.Config, stderr io.Writer) (logging.Options, error) {
	schema := config.DefaultSchema()
	pick := func(flagValue, key string) string {
		if flagValue != "" {
			return flagValue
		}
		return schema.Resolve(cfg, key)
	}

	level, err := logging.ParseLevel(pick(f.level, "log.level"))
	if err != nil {
		return logging.Options{}, err
	}
	opts := logging.Options{
		Level:  level,
		Stderr: stderr,
		Format: pick(f.format, "log.format"),
		File:   pick(f.file, "log.file"),
		Rotation: logging.Rotation{
			MaxSizeMB: config.Int(cfg, "log.max-size-mb", logging.DefaultRotation().MaxSizeMB),
			MaxFiles:  config.Int(cfg, "log.max-files", logging.DefaultRotation().MaxFiles),
		},
	}
	return opts, nil
}

// newLogger builds the command's logger. The returned close function must be
// called when the command is done.
func newLogger(f logFlags, cfg *config.Config, stderr io.Writer) (*slog.Logger, func() error, error) {
	opts, err := resolveLogConfig(f, cfg, stderr)
	if err != nil {
		return nil, nil, err
	}
	logger, closeFn, err := logging.New(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closeFn, nil
}
