package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/joeycumines/passgen/internal/config"
	"github.com/joeycumines/passgen/internal/executor"
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/passing"
	"github.com/joeycumines/passgen/internal/scenario"
	"github.com/joeycumines/passgen/internal/tactic"
)

// SimulateCommand runs a CherryPick tactic headless against a scenario world
// and reports the intents it dispatches.
type SimulateCommand struct {
	*BaseCommand
	config *config.Config

	scenario string
	ticks    int
	format   string
	seed     int64
	timeout  time.Duration
	log      logFlags
}

// NewSimulateCommand creates a new simulate command.
func NewSimulateCommand(cfg *config.Config) *SimulateCommand {
	return &SimulateCommand{
		BaseCommand: NewBaseCommand(
			"simulate",
			"Run the cherry-pick tactic against a scenario for a number of ticks",
			"simulate [options]",
		),
		config: cfg,
	}
}

func (c *SimulateCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.scenario, "scenario", "", "Built-in scenario name or JSON file path")
	fs.IntVar(&c.ticks, "ticks", 0, "Number of intents to dispatch before stopping")
	fs.StringVar(&c.format, "format", "", "Output format: text or json")
	fs.Int64Var(&c.seed, "seed", -1, "Random seed (overrides passing.seed)")
	fs.DurationVar(&c.timeout, "timeout", time.Minute, "Give up if the ticks have not completed by then")
	c.log.setup(fs)
}

// SimulatedTick is one dispatched intent with the pass behind it.
type SimulatedTick struct {
	Tick        uint64             `json:"tick"`
	Robot       uint               `json:"robot"`
	Intent      string             `json:"intent"`
	Destination *geom.Point        `json:"destination,omitempty"`
	Orientation float64            `json:"orientationDeg"`
	Best        passing.ScoredPass `json:"best"`
}

// SimulationReport is the JSON output of simulate.
type SimulationReport struct {
	Scenario string          `json:"scenario"`
	Region   scenario.Region `json:"region"`
	Robot    uint            `json:"robot"`
	Ticks    []SimulatedTick `json:"ticks"`
}

func (c *SimulateCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}

	format := sectionOption(c.config, c.Name(), "format", c.format)
	if err := checkFormat(format); err != nil {
		return err
	}
	ticks, err := sectionInt(c.config, c.Name(), "ticks", c.ticks)
	if err != nil {
		return err
	}
	interval, err := config.TickInterval(c.config)
	if err != nil {
		return err
	}
	sc, err := loadScenario(c.config, c.Name(), c.scenario)
	if err != nil {
		return err
	}
	opts, err := passingOptions(c.config, c.seed)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(c.log, c.config, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logger = logger.With("scenario", sc.Name)

	region := sc.World.Field.Lines()
	if sc.TargetRegion != nil {
		region = sc.TargetRegion.Rect()
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	cherry, err := tactic.NewCherryPick(sc.World, region, logger, opts...)
	if err != nil {
		return err
	}

	rec := &tickRecorder{limit: uint64(ticks), done: cancel}
	exec, err := executor.New(ctx, executor.DispatcherFunc(rec.dispatch),
		executor.WithTickInterval(interval),
		executor.WithLogger(logger),
	)
	if err != nil {
		_ = cherry.Close()
		return err
	}
	rec.board = exec.Blackboard()
	exec.UpdateWorld(sc.World)
	robot, err := exec.Assign(cherry)
	if err != nil {
		_ = exec.Stop()
		return err
	}

	<-exec.Done()
	if err := exec.Err(); err != nil {
		return err
	}
	report := SimulationReport{
		Scenario: sc.Name,
		Region:   scenario.Region{Min: region.Min(), Max: region.Max()},
		Robot:    robot.ID,
		Ticks:    rec.results(),
	}
	if n := uint64(len(report.Ticks)); n < rec.limit {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("simulate: timed out after %d of %d ticks", n, rec.limit)
		}
		return fmt.Errorf("simulate: stopped after %d of %d ticks", n, rec.limit)
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeSimulationText(stdout, report)
	return nil
}

// tickRecorder is the simulation's dispatcher. It reads the pass behind each
// intent from the executor's blackboard, and stops the run once limit
// intents have been recorded.
type tickRecorder struct {
	limit uint64
	board *executor.Blackboard
	done  context.CancelFunc

	mu    sync.Mutex
	ticks []SimulatedTick
}

func (r *tickRecorder) dispatch(_ context.Context, i intent.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if uint64(len(r.ticks)) >= r.limit {
		return nil
	}
	t := SimulatedTick{
		Tick:   uint64(len(r.ticks)) + 1,
		Robot:  i.RobotID(),
		Intent: i.Name(),
	}
	if entry, ok := r.board.Get(i.RobotID()); ok && entry.HasPass {
		t.Best = passing.ScoredPass{Pass: entry.Pass, Score: entry.Score}
	}
	if m, ok := i.(*intent.MoveIntent); ok {
		dest := m.Destination
		t.Destination = &dest
		t.Orientation = m.FinalAngle.Degrees()
	}
	r.ticks = append(r.ticks, t)
	if uint64(len(r.ticks)) == r.limit {
		r.done()
	}
	return nil
}

func (r *tickRecorder) results() []SimulatedTick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SimulatedTick(nil), r.ticks...)
}

func writeSimulationText(w io.Writer, report SimulationReport) {
	_, _ = fmt.Fprintf(w, "scenario %s: robot %d cherry-picking in %v\n\n", report.Scenario, report.Robot, report.Region.Rect())
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TICK\tDESTINATION\tFACING\tSCORE\tBEST PASS")
	for _, t := range report.Ticks {
		dest := "-"
		if t.Destination != nil {
			dest = t.Destination.String()
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.4f\t%v\n", t.Tick, dest, t.Orientation, t.Best.Score, t.Best.Pass)
	}
	_ = tw.Flush()
}
