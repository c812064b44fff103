package passing

import (
	"fmt"
	"math"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/world"
)

// RatingParams are the physical constants behind the quality components.
type RatingParams struct {
	// RobotMaxSpeed and RobotMaxAccel model how quickly any robot, friendly
	// or enemy, can cover ground.
	RobotMaxSpeed float64
	RobotMaxAccel float64
	// RobotRadius is subtracted from interception distances.
	RobotRadius float64
	// EnemyReactionTime delays every enemy before it starts moving.
	EnemyReactionTime time.Duration
	// FieldMargin is the width of the sigmoid at the field lines.
	FieldMargin float64
	// RegionMargin is the width of the sigmoid at the target region edges.
	RegionMargin float64
	// SlackWidth is the width, in seconds, of the time slack sigmoids.
	SlackWidth float64
}

// DefaultRatingParams returns values tuned for small size league robots.
func DefaultRatingParams() RatingParams {
	return RatingParams{
		RobotMaxSpeed:     2,
		RobotMaxAccel:     3,
		RobotRadius:       0.09,
		EnemyReactionTime: 400 * time.Millisecond,
		FieldMargin:       0.3,
		RegionMargin:      0.2,
		SlackWidth:        0.5,
	}
}

// Validate reports the first non-positive parameter.
func (p RatingParams) Validate() error {
	for _, v := range [...]struct {
		name  string
		value float64
	}{
		{"robot max speed", p.RobotMaxSpeed},
		{"robot max accel", p.RobotMaxAccel},
		{"field margin", p.FieldMargin},
		{"region margin", p.RegionMargin},
		{"slack width", p.SlackWidth},
	} {
		if !positiveFinite(v.value) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, v.name, v.value)
		}
	}
	if !(p.RobotRadius >= 0) || math.IsInf(p.RobotRadius, 0) {
		return fmt.Errorf("%w: robot radius must be non-negative and finite, got %v", ErrInvalidConfig, p.RobotRadius)
	}
	if p.EnemyReactionTime < 0 {
		return fmt.Errorf("%w: enemy reaction time must be non-negative, got %v", ErrInvalidConfig, p.EnemyReactionTime)
	}
	return nil
}

// Components is the breakdown of a rating. Every component is in [0, 1].
// The expr tags name the variables available to a rating expression.
type Components struct {
	Static   float64 `expr:"static" json:"static"`
	Friendly float64 `expr:"friendly" json:"friendly"`
	Enemy    float64 `expr:"enemy" json:"enemy"`
	Timing   float64 `expr:"timing" json:"timing"`
	Region   float64 `expr:"region" json:"region"`
}

// Product multiplies all components together.
func (c Components) Product() float64 {
	return c.Static * c.Friendly * c.Enemy * c.Timing * c.Region
}

func (c Components) finite() bool {
	return isFinite(c.Static) && isFinite(c.Friendly) && isFinite(c.Enemy) && isFinite(c.Timing) && isFinite(c.Region)
}

// Rater scores passes. A Rater is immutable once built and safe for
// concurrent use.
type Rater struct {
	params     RatingParams
	minSpeed   float64
	maxSpeed   float64
	maxDelay   time.Duration
	expression string
	program    *vm.Program
}

// NewRater builds the rater described by cfg, compiling cfg.RatingExpr if
// set. An expression that does not compile is an invalid config.
func NewRater(cfg Config) (*Rater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Rater{
		params:     cfg.Rating,
		minSpeed:   cfg.MinSpeed,
		maxSpeed:   cfg.MaxSpeed,
		maxDelay:   cfg.MaxStartDelay,
		expression: cfg.RatingExpr,
	}
	if cfg.RatingExpr != "" {
		program, err := expr.Compile(cfg.RatingExpr,
			expr.Env(Components{}),
			expr.AsFloat64(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: rating expression: %w", ErrInvalidConfig, err)
		}
		r.program = program
	}
	return r, nil
}

// Expression returns the rating expression, empty when the product is used.
func (r *Rater) Expression() string {
	return r.expression
}

// Rate returns the quality of p in w, in [0, 1]. Any numerical failure,
// including a failing rating expression, yields 0.
func (r *Rater) Rate(p Pass, w world.World, target TargetRegion, exclusion PasserExclusion) float64 {
	if !finiteGeometry(p, w) {
		return 0
	}
	c := r.Components(p, w, target, exclusion)
	if !c.finite() {
		return 0
	}
	var v float64
	if r.program == nil {
		v = c.Product()
	} else {
		out, err := expr.Run(r.program, c)
		if err != nil {
			return 0
		}
		f, ok := out.(float64)
		if !ok {
			return 0
		}
		v = f
	}
	if !isFinite(v) {
		return 0
	}
	return min(max(v, 0), 1)
}

// Components returns the individual quality components of p in w.
func (r *Rater) Components(p Pass, w world.World, target TargetRegion, exclusion PasserExclusion) Components {
	now := w.Timestamp().Seconds()
	return Components{
		Static:   r.static(p, w.Field),
		Friendly: r.friendly(p, w, now, exclusion),
		Enemy:    r.enemy(p, w, now),
		Timing:   r.timing(p, w, now, exclusion),
		Region:   r.region(p, target),
	}
}

// static is high for receivers comfortably inside the field lines.
func (r *Rater) static(p Pass, field world.Field) float64 {
	lines := field.Lines()
	lo, hi := lines.Min(), lines.Max()
	q := p.ReceiverPoint
	margin := min(q.X-lo.X, hi.X-q.X, q.Y-lo.Y, hi.Y-q.Y)
	return r.slack(margin, r.params.FieldMargin)
}

// friendly is the best receive capability among the eligible robots. Times
// are seconds on the game clock.
func (r *Rater) friendly(p Pass, w world.World, now float64, exclusion PasserExclusion) float64 {
	if !(p.Speed > 0) {
		return 0
	}
	arrival := p.StartTime.Seconds() + p.Length()/p.Speed
	var best float64
	for _, robot := range w.Friendly.Robots {
		if excludes(exclusion, robot.ID) {
			continue
		}
		reach := now + r.travelTime(robot.Position.Dist(p.ReceiverPoint))
		best = max(best, r.slack(arrival-reach, r.params.SlackWidth))
	}
	return best
}

// enemy is the worst case, over all enemies, of the ball beating the enemy
// to the closest point of the pass segment.
func (r *Rater) enemy(p Pass, w world.World, now float64) float64 {
	lane := geom.Segment{Start: p.PasserPoint, End: p.ReceiverPoint}
	start := p.StartTime.Seconds()
	reaction := r.params.EnemyReactionTime.Seconds()
	q := 1.0
	for _, robot := range w.Enemy.Robots {
		c := lane.ClosestPoint(robot.Position)
		ball := start
		if d := p.PasserPoint.Dist(c); d != 0 {
			if !(p.Speed > 0) {
				return 0
			}
			ball += d / p.Speed
		}
		dist := max(robot.Position.Dist(c)-r.params.RobotRadius, 0)
		intercept := now + reaction + r.travelTime(dist)
		q = min(q, r.slack(intercept-ball, r.params.SlackWidth))
	}
	return q
}

// timing is high when the pass starts in the near future at a speed within
// range, and the passer, if known, can get to the ball first.
func (r *Rater) timing(p Pass, w world.World, now float64, exclusion PasserExclusion) float64 {
	delay := p.StartTime.Seconds() - now
	q := sigmoid(delay, 0, 0.2) *
		(1 - sigmoid(delay, r.maxDelay.Seconds(), 0.5)) *
		sigmoid(p.Speed, r.minSpeed, 0.5) *
		(1 - sigmoid(p.Speed, r.maxSpeed, 0.5))
	if e, ok := exclusion.(ExcludeRobot); ok {
		if passer, ok := w.Friendly.Robot(e.ID); ok {
			dist := max(passer.Position.Dist(p.PasserPoint)-r.params.RobotRadius, 0)
			q *= r.slack(delay-r.travelTime(dist), r.params.SlackWidth)
		}
	}
	if !isFinite(q) {
		return 0
	}
	return q
}

// region is 1 inside the target region, falling off outside it.
func (r *Rater) region(p Pass, target TargetRegion) float64 {
	switch t := target.(type) {
	case WithinRegion:
		d := t.Rect.Dist(p.ReceiverPoint)
		return sigmoid(-d, -r.params.RegionMargin/2, r.params.RegionMargin)
	case AnyRegion, nil:
		return 1
	default:
		panic("passing: unknown target region type")
	}
}

// travelTime is the time, in seconds, to cover dist from rest and stop at the
// end, under a trapezoidal velocity profile.
func (r *Rater) travelTime(dist float64) float64 {
	v, a := r.params.RobotMaxSpeed, r.params.RobotMaxAccel
	ramp := v * v / a
	if dist <= ramp {
		return 2 * math.Sqrt(dist/a)
	}
	return 2*v/a + (dist-ramp)/v
}

// slack is sigmoid(v, 0, width), or 0 when v is not a finite number.
func (r *Rater) slack(v, width float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return sigmoid(v, 0, width)
}

// finiteGeometry reports whether every point and speed the rating reads is
// a finite number.
func finiteGeometry(p Pass, w world.World) bool {
	if !p.PasserPoint.IsFinite() || !p.ReceiverPoint.IsFinite() || !isFinite(p.Speed) {
		return false
	}
	for _, team := range [...]world.Team{w.Friendly, w.Enemy} {
		for _, robot := range team.Robots {
			if !robot.Position.IsFinite() {
				return false
			}
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// sigmoid rises from ~0 to ~1 across width, centred on offset.
func sigmoid(v, offset, width float64) float64 {
	return 1 / (1 + math.Exp((offset-v)*8/width))
}
