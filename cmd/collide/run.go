package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/lixenwraith/collide/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

// Relative energy drift above which the report flags the run
const driftWarn = 1e-9

// report summarizes a headless run
type report struct {
	ID            string       `json:"id"`
	Particles     int          `json:"particles"`
	Time          float64      `json:"time"`
	Executed      int          `json:"executed,omitempty"`
	Stats         engine.Stats `json:"stats"`
	StaleRatio    float64      `json:"stale_ratio"`
	InitialEnergy float64      `json:"initial_energy"`
	FinalEnergy   float64      `json:"final_energy"`
	Drift         float64      `json:"drift"`
	Elapsed       string       `json:"elapsed"`
	Note          string       `json:"note,omitempty"`
}

func runCommand() cli.Command {
	return cli.Command{
		Name:  "run",
		Usage: "simulate without a display and print a report",
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "events",
				Value: 1000,
				Usage: "number of events to execute",
			},
			cli.Float64Flag{
				Name:  "until",
				Usage: "simulate up to this time instead of counting events",
			},
			cli.BoolFlag{
				Name:  "json",
				Usage: "print the report as JSON",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, _ := setupLogging(cfg.Level(), false)

	particles, err := cfg.Build()
	if err != nil {
		return err
	}
	id := uuid.New()
	sim, err := engine.New(particles, engine.WithLogger(logger.With("run", id.String())))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep := report{ID: id.String(), Particles: len(particles), InitialEnergy: sim.TotalKineticEnergy()}
	start := time.Now()
	if c.IsSet("until") {
		err = sim.RunUntil(ctx, c.Float64("until"))
	} else {
		rep.Executed, err = sim.RunEvents(ctx, c.Int("events"))
	}
	rep.Elapsed = time.Since(start).Round(time.Microsecond).String()

	switch {
	case err == nil:
	case errors.Is(err, engine.ErrQueueExhausted):
		rep.Note = "stopped early: nothing left to happen"
	case errors.Is(err, context.Canceled):
		rep.Note = "interrupted"
	default:
		return err
	}

	rep.Time = sim.Now()
	rep.Stats = sim.Stats()
	rep.FinalEnergy = sim.TotalKineticEnergy()
	rep.Drift = relativeDrift(rep.InitialEnergy, rep.FinalEnergy)
	if popped := rep.Stats.Events + rep.Stats.Stale; popped > 0 {
		rep.StaleRatio = float64(rep.Stats.Stale) / float64(popped)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(c.App.Writer, rep)
	return nil
}

func relativeDrift(initial, final float64) float64 {
	if initial == 0 {
		return math.Abs(final)
	}
	return math.Abs(final-initial) / initial
}

func printReport(w io.Writer, rep report) {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}

	drift := goodStyle.Render(fmt.Sprintf("%.3g", rep.Drift))
	if rep.Drift > driftWarn {
		drift = warnStyle.Render(fmt.Sprintf("%.3g", rep.Drift))
	}

	lines := []string{
		titleStyle.Render("collide run " + rep.ID[:8]),
		row("particles", fmt.Sprint(rep.Particles)),
		row("time", fmt.Sprintf("%.6g", rep.Time)),
		row("events", fmt.Sprint(rep.Stats.Events)),
		row("collisions", fmt.Sprint(rep.Stats.Collisions)),
		row("wall hits", fmt.Sprint(rep.Stats.WallHits)),
		row("stale", fmt.Sprintf("%d (%.1f%%)", rep.Stats.Stale, 100*rep.StaleRatio)),
		row("pending", fmt.Sprint(rep.Stats.Pending)),
		row("reseeds", fmt.Sprintf("%d (%d self-heal)", rep.Stats.Reseeds, rep.Stats.SelfHeals)),
		row("energy", fmt.Sprintf("%.9g -> %.9g", rep.InitialEnergy, rep.FinalEnergy)),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("drift"), drift),
		row("elapsed", rep.Elapsed),
	}
	if rep.Note != "" {
		lines = append(lines, warnStyle.Render(rep.Note))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}
