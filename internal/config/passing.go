package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/joeycumines/passgen/internal/passing"
)

// ErrInvalidOption is wrapped when a typed option does not parse.
var ErrInvalidOption = errors.New("invalid config option")

// resolver reads typed values through the schema, stopping at the first
// parse failure.
type resolver struct {
	cfg    *Config
	schema *ConfigSchema
	err    error
}

func newResolver(cfg *Config) *resolver {
	return &resolver{cfg: cfg, schema: DefaultSchema()}
}

func (r *resolver) raw(key string) string { return r.schema.Resolve(r.cfg, key) }

func (r *resolver) fail(key, value string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s %q: %v", ErrInvalidOption, key, value, err)
	}
}

func (r *resolver) integer(key string, dst *int) {
	if v := r.raw(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (r *resolver) float(key string, dst *float64) {
	if v := r.raw(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (r *resolver) duration(key string, dst *time.Duration) {
	if v := r.raw(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			r.fail(key, v, err)
			return
		}
		*dst = d
	}
}

// PassingConfig overlays the passing.* options onto passing.DefaultConfig and
// validates the result.
func PassingConfig(cfg *Config) (passing.Config, error) {
	out := passing.DefaultConfig()
	r := newResolver(cfg)
	r.integer("passing.num-to-optimize", &out.NumToOptimize)
	r.integer("passing.num-to-keep", &out.NumToKeep)
	r.float("passing.space-weight", &out.SpaceWeight)
	r.float("passing.speed-weight", &out.SpeedWeight)
	r.float("passing.time-weight", &out.TimeWeight)
	r.float("passing.merge-tolerance", &out.MergeTolerance)
	r.float("passing.min-speed", &out.MinSpeed)
	r.float("passing.max-speed", &out.MaxSpeed)
	r.duration("passing.min-start-delay", &out.MinStartDelay)
	r.duration("passing.max-start-delay", &out.MaxStartDelay)
	r.duration("passing.iteration-period", &out.IterationPeriod)
	out.RatingExpr = r.raw("passing.rating-expr")
	if r.err != nil {
		return passing.Config{}, r.err
	}
	if err := out.Validate(); err != nil {
		return passing.Config{}, err
	}
	return out, nil
}

// Seed returns passing.seed, if set.
func Seed(cfg *Config) (seed uint64, ok bool, err error) {
	v := newResolver(cfg).raw("passing.seed")
	if v == "" {
		return 0, false, nil
	}
	seed, err = strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: passing.seed %q: %v", ErrInvalidOption, v, err)
	}
	return seed, true, nil
}

// TickInterval returns tactic.tick-interval, which must be positive.
func TickInterval(cfg *Config) (time.Duration, error) {
	var d time.Duration
	r := newResolver(cfg)
	r.duration("tactic.tick-interval", &d)
	if r.err != nil {
		return 0, r.err
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: tactic.tick-interval must be positive, got %v", ErrInvalidOption, d)
	}
	return d, nil
}

// Int returns a global integer option, falling back to its schema default.
// Unparseable values yield def.
func Int(cfg *Config, key string, def int) int {
	n := def
	r := newResolver(cfg)
	r.integer(key, &n)
	if r.err != nil {
		return def
	}
	return n
}
