package command

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joeycumines/passgen/internal/config"
	"github.com/joeycumines/passgen/internal/passing"
)

// RateCommand rates a scenario's pass and shows each quality component.
type RateCommand struct {
	*BaseCommand
	config *config.Config

	scenario string
	format   string
	expr     string
}

// NewRateCommand creates a new rate command.
func NewRateCommand(cfg *config.Config) *RateCommand {
	return &RateCommand{
		BaseCommand: NewBaseCommand(
			"rate",
			"Rate the pass described by a scenario",
			"rate [options]",
		),
		config: cfg,
	}
}

func (c *RateCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.scenario, "scenario", "", "Built-in scenario name or JSON file path")
	fs.StringVar(&c.format, "format", "", "Output format: text or json")
	fs.StringVar(&c.expr, "expr", "", "Rating expression (overrides passing.rating-expr)")
}

// Rating is the JSON output of rate.
type Rating struct {
	Scenario   string             `json:"scenario"`
	Pass       passing.Pass       `json:"pass"`
	Expression string             `json:"expression,omitempty"`
	Components passing.Components `json:"components"`
	Score      float64            `json:"score"`
}

func (c *RateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	format := sectionOption(c.config, c.Name(), "format", c.format)
	if err := checkFormat(format); err != nil {
		return err
	}
	sc, err := loadScenario(c.config, c.Name(), c.scenario)
	if err != nil {
		return err
	}
	p, ok := sc.RatedPass()
	if !ok {
		return fmt.Errorf("scenario %q has no pass to rate", sc.Name)
	}

	pc, err := config.PassingConfig(c.config)
	if err != nil {
		return err
	}
	if c.expr != "" {
		pc.RatingExpr = c.expr
	}
	rater, err := passing.NewRater(pc)
	if err != nil {
		return err
	}

	r := Rating{
		Scenario:   sc.Name,
		Pass:       p,
		Expression: rater.Expression(),
		Components: rater.Components(p, sc.World, sc.Region(), sc.Exclusion()),
		Score:      rater.Rate(p, sc.World, sc.Region(), sc.Exclusion()),
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	_, _ = fmt.Fprintf(stdout, "scenario %s\npass %v\n\n", r.Scenario, r.Pass)
	tw := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"static", r.Components.Static},
		{"friendly", r.Components.Friendly},
		{"enemy", r.Components.Enemy},
		{"timing", r.Components.Timing},
		{"region", r.Components.Region},
	} {
		_, _ = fmt.Fprintf(tw, "%s\t%.4f\n", row.name, row.value)
	}
	_ = tw.Flush()
	if r.Expression != "" {
		_, _ = fmt.Fprintf(stdout, "\nexpression %s\n", r.Expression)
	}
	_, _ = fmt.Fprintf(stdout, "score %.4f\n", r.Score)
	return nil
}
