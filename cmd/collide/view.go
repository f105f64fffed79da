package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep/speaker"
	"github.com/urfave/cli"

	"github.com/lixenwraith/collide/audio"
	"github.com/lixenwraith/collide/config"
	"github.com/lixenwraith/collide/engine"
	"github.com/lixenwraith/collide/render"
)

const (
	clickBuffer  = 256
	speakerDelay = 100 * time.Millisecond
	minSpeed     = 1.0 / 64
	maxSpeed     = 1 << 16
)

func viewCommand() cli.Command {
	return cli.Command{
		Name:  "view",
		Usage: "watch the simulation live in the terminal",
		Flags: []cli.Flag{
			cli.Float64Flag{
				Name:  "speed",
				Usage: "simulated time per second (overrides config)",
			},
			cli.BoolFlag{
				Name:  "mute",
				Usage: "disable collision clicks",
			},
		},
		Action: viewAction,
	}
}

// viewer owns the screen, the simulation and its pacing; everything runs on one goroutine
type viewer struct {
	screen  tcell.Screen
	term    *render.Terminal
	sim     *engine.Simulation
	pacer   *engine.Pacer
	clicker *audio.Clicker
	logger  *log.Logger

	// Render every frame when the simulation has no redraw ticks
	renderFrames bool
}

func newViewer(screen tcell.Screen, cfg config.Config, provider engine.TimeProvider, clicker *audio.Clicker, logger *log.Logger) (*viewer, error) {
	particles, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	v := &viewer{
		screen:       screen,
		term:         render.NewTerminal(screen),
		clicker:      clicker,
		logger:       logger,
		renderFrames: cfg.RedrawInterval <= 0,
	}
	opts := []engine.Option{
		engine.WithRenderer(v.term, cfg.RedrawInterval),
		engine.WithLogger(logger),
	}
	if clicker != nil {
		opts = append(opts, engine.WithCollisionHook(clicker.Notify))
	}

	v.sim, err = engine.New(particles, opts...)
	if err != nil {
		return nil, err
	}
	v.pacer = engine.NewPacer(v.sim, provider, cfg.Speed)
	v.updateStatus()
	return v, nil
}

func viewAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("speed") {
		cfg.Speed = c.Float64("speed")
	}
	logger, file := setupLogging(cfg.Level(), true)
	if file != nil {
		defer file.Close()
	}

	var clicker *audio.Clicker
	if !c.Bool("mute") {
		if err := speaker.Init(audio.SampleRate, audio.SampleRate.N(speakerDelay)); err != nil {
			logger.Warn("audio unavailable, continuing muted", "err", err)
		} else {
			defer speaker.Close()
			clicker = audio.NewClicker(audio.SampleRate, clickBuffer)
			speaker.Play(clicker)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	v, err := newViewer(screen, cfg, engine.NewMonotonicTimeProvider(), clicker, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return v.loop(ctx, time.Second/time.Duration(cfg.FPS))
}

func (v *viewer) loop(ctx context.Context, frame time.Duration) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go v.screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	v.term.Render(v.sim.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if v.handleKey(ev.Key(), ev.Rune()) {
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
			v.term.Render(v.sim.Snapshot())
		case <-ticker.C:
			if err := v.frame(ctx); err != nil {
				return err
			}
		}
	}
}

// frame advances the simulation to the wall-clock target
func (v *viewer) frame(ctx context.Context) error {
	err := v.pacer.Advance(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		return nil
	default:
		v.logger.Error("simulation stopped", "err", err, "time", v.sim.Now())
		return err
	}
	if v.renderFrames {
		v.term.Render(v.sim.Snapshot())
	}
	return nil
}

// handleKey applies a key press, returning true to quit
func (v *viewer) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch r {
	case 'q':
		return true
	case ' ':
		paused := v.pacer.Toggle()
		v.logger.Debug("pause toggled", "paused", paused, "time", v.sim.Now())
	case '+', '=':
		v.pacer.SetSpeed(min(max(v.pacer.Speed()*2, minSpeed), maxSpeed))
	case '-', '_':
		v.pacer.SetSpeed(max(v.pacer.Speed()/2, minSpeed))
	case 'm':
		if v.clicker != nil {
			v.clicker.Toggle()
		}
	}
	v.updateStatus()
	return false
}

func (v *viewer) updateStatus() {
	status := fmt.Sprintf("x%g", v.pacer.Speed())
	if v.pacer.Paused() {
		status += "  PAUSED"
	}
	if held := v.pacer.PausedFor(); held >= time.Second {
		status += "  held " + held.Round(time.Second).String()
	}
	if v.clicker == nil || v.clicker.Muted() {
		status += "  muted"
	}
	v.term.SetStatus(status + "  [space] pause  [+/-] speed  [m] mute  [q] quit")
}
