package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls a run of the articulate tool. Flags override the
// environment.
type Config struct {
	Scene      string        `env:"ARTICULATE_SCENE"      envDefault:"chain.yaml"`
	Script     string        `env:"ARTICULATE_SCRIPT"`
	Steps      int           `env:"ARTICULATE_STEPS"      envDefault:"0"`
	DT         float64       `env:"ARTICULATE_DT"         envDefault:"0.016666"`
	Iterations int           `env:"ARTICULATE_ITERATIONS" envDefault:"10"`
	Planar     bool          `env:"ARTICULATE_PLANAR"`
	Watch      bool          `env:"ARTICULATE_WATCH"`
	WatchDirs  []string      `env:"ARTICULATE_WATCH_DIRS" envSeparator:"," envDefault:"prefabs/scenes,prefabs/scripts"`
	Settle     time.Duration `env:"ARTICULATE_SETTLE"     envDefault:"50ms"`
}

func loadConfig(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("articulate", flag.ContinueOnError)
	fs.StringVar(&cfg.Scene, "scene", cfg.Scene, "scene name under prefabs/scenes")
	fs.StringVar(&cfg.Script, "script", cfg.Script, "tengo script under prefabs/scripts (defaults to the scene's)")
	fs.IntVar(&cfg.Steps, "steps", cfg.Steps, "number of simulation steps")
	fs.Float64Var(&cfg.DT, "dt", cfg.DT, "step length in seconds")
	fs.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "planar solver iterations")
	fs.BoolVar(&cfg.Planar, "planar", cfg.Planar, "step two-body constraints in a 2D chipmunk space")
	fs.BoolVar(&cfg.Watch, "watch", cfg.Watch, "rebuild when scene or script files change")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Scene == "" {
		return Config{}, fmt.Errorf("no scene given")
	}
	if cfg.Steps < 0 || cfg.DT <= 0 {
		return Config{}, fmt.Errorf("invalid stepping: steps=%d dt=%v", cfg.Steps, cfg.DT)
	}
	return cfg, nil
}
