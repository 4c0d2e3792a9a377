// Package main provides the headless simulation binary: it loads a scenario,
// lets the AI play both sides to a result, prints the event log and
// optionally persists checkpoints and verifies replay determinism.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/scenario"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/storage/sqlite"
)

type options struct {
	configPath   string
	scenarioID   string
	seed         uint64
	resume       string
	every        int
	verifyReplay bool
	quiet        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to configuration file; empty = defaults and SKIRMISH_* environment")
	flag.StringVar(&opts.scenarioID, "scenario", "ork_ambush", "scenario id to play")
	flag.Uint64Var(&opts.seed, "seed", 0, "RNG seed; 0 = scenario seed, then configured seed, then random")
	flag.StringVar(&opts.resume, "resume", "", "encounter id to resume from storage instead of starting a scenario")
	flag.IntVar(&opts.every, "checkpoint-every", 5, "turns between checkpoints when storage is enabled")
	flag.BoolVar(&opts.verifyReplay, "verify-replay", false, "replay the journal from the opening snapshot and compare results")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress the event log on stdout")
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	out := io.Writer(os.Stdout)
	if opts.quiet {
		out = io.Discard
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, opts, out, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, opts options, out io.Writer, logger *zap.Logger) error {
	start := time.Now()

	shutdown, err := observability.SetupTracing(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	conditions, err := condition.LoadDirectory(cfg.Content.ConditionsDir)
	if err != nil {
		return fmt.Errorf("loading conditions: %w", err)
	}
	templates, err := unit.LoadTemplates(cfg.Content.UnitsDir)
	if err != nil {
		return fmt.Errorf("loading unit templates: %w", err)
	}
	catalog, err := unit.NewCatalog(templates)
	if err != nil {
		return err
	}
	profiles, err := ai.LoadProfiles(cfg.Content.AIDir)
	if err != nil {
		return fmt.Errorf("loading ai profiles: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("unit_templates", len(templates)),
		zap.Int("ai_profiles", len(profiles)),
		zap.Duration("elapsed", time.Since(start)),
	)

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	scripts := scripting.NewManager(logger)
	defer scripts.Close()
	if cfg.Scripting.ScriptDir != "" {
		if err := scripts.LoadGlobal(cfg.Scripting.ScriptDir, cfg.Scripting.InstructionLimit); err != nil {
			return err
		}
	}

	e, opening, err := openEncounter(ctx, cfg, opts, catalog, conditions, store, scripts, logger)
	if err != nil {
		return err
	}
	e.BindScripts(scripts)
	logger = observability.EncounterLogger(logger, e.ID(), e.Config().Scenario, e.Seed())

	registry := ai.NewRegistry(ai.Settings{
		SupportRadius:     cfg.AI.SupportRadius,
		LowHealthFraction: cfg.AI.LowHealthFraction,
	}, e.Engine(), scripts, e.ID())
	for _, p := range profiles {
		if err := registry.Register(p); err != nil {
			return err
		}
	}
	player := encounter.NewAutoPlayer(registry, cfg.AI.MaxCommandsPerTurn, logger)

	enc := json.NewEncoder(out)
	printed := 0
	flush := func() error {
		events := e.Events()
		for _, ev := range events[printed:] {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		printed = len(events)
		return nil
	}

	pos := e.JournalLen()
	for turns := 1; !e.Resolved(); turns++ {
		if ctx.Err() != nil {
			// Interrupted: keep what was played so -resume can continue it.
			if store != nil {
				if _, err := encounter.Checkpoint(context.Background(), store, e, pos); err != nil {
					logger.Error("checkpoint on interrupt", zap.Error(err))
				}
			}
			return ctx.Err()
		}
		if err := player.PlayTurn(ctx, e); err != nil {
			return err
		}
		if err := flush(); err != nil {
			return err
		}
		if store != nil && opts.every > 0 && turns%opts.every == 0 {
			if pos, err = encounter.Checkpoint(ctx, store, e, pos); err != nil {
				return err
			}
		}
	}
	if store != nil {
		if _, err := encounter.Checkpoint(ctx, store, e, pos); err != nil {
			return err
		}
	}
	logger.Info("simulation finished",
		zap.String("outcome", string(e.Outcome())),
		zap.Int("rounds", e.Round()),
		zap.Int("commands", e.JournalLen()),
		zap.Duration("elapsed", time.Since(start)),
	)
	fmt.Fprintf(os.Stderr, "encounter %s: %s after %d rounds (seed %d)\n", e.ID(), e.Outcome(), e.Round(), e.Seed())

	if opts.verifyReplay {
		if opening == nil {
			return errors.New("-verify-replay needs a fresh scenario, not -resume")
		}
		return verifyReplay(ctx, opening, e, conditions)
	}
	return nil
}

// openStore returns the configured encounter store, or nil when persistence is off.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (encounter.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("sqlite storage opened", zap.String("path", cfg.Storage.SQLitePath))
		return s, func() { _ = s.Close() }, nil
	case config.DriverPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Migrate(); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		return postgres.NewEncounterRepository(pool.DB()), pool.Close, nil
	}
	return nil, func() {}, nil
}

// openEncounter resumes opts.resume from store, or starts opts.scenarioID. A fresh
// encounter also returns its opening snapshot.
func openEncounter(
	ctx context.Context,
	cfg config.Config,
	opts options,
	catalog *unit.Catalog,
	conditions *condition.Registry,
	store encounter.Store,
	scripts *scripting.Manager,
	logger *zap.Logger,
) (*encounter.Encounter, *encounter.Snapshot, error) {
	if opts.resume != "" {
		if store == nil {
			return nil, nil, errors.New("-resume needs storage.driver sqlite or postgres")
		}
		snap, tail, err := encounter.Resume(ctx, store, opts.resume)
		if err != nil {
			return nil, nil, err
		}
		e, err := encounter.Replay(ctx, snap, tail, conditions, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := loadScenarioScripts(cfg, scripts, e); err != nil {
			return nil, nil, err
		}
		return e, nil, nil
	}

	sc, err := scenario.Load(filepath.Join(cfg.Content.ScenariosDir, opts.scenarioID+".yaml"))
	if err != nil {
		return nil, nil, err
	}
	setup, err := sc.Setup(catalog, conditions)
	if err != nil {
		return nil, nil, err
	}
	setup.Seed = pickSeed(opts.seed, sc.Seed, cfg.Encounter.Seed)
	if setup.Seed == 0 {
		if setup.Seed, err = dice.NewSeed(); err != nil {
			return nil, nil, err
		}
	}
	e, err := encounter.New(setup, sc.Config(encounter.Config{
		HazardDamage: cfg.Encounter.HazardDamage,
		MaxRounds:    cfg.Encounter.MaxRounds,
	}), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := loadScenarioScripts(cfg, scripts, e); err != nil {
		return nil, nil, err
	}
	opening, err := e.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	return e, opening, nil
}

// pickSeed returns the first non-zero seed.
func pickSeed(seeds ...uint64) uint64 {
	for _, s := range seeds {
		if s != 0 {
			return s
		}
	}
	return 0
}

// loadScenarioScripts loads ScriptDir/<scenario> as e's script scope when that directory exists.
func loadScenarioScripts(cfg config.Config, scripts *scripting.Manager, e *encounter.Encounter) error {
	id := e.Config().Scenario
	if cfg.Scripting.ScriptDir == "" || id == "" {
		return nil
	}
	dir := filepath.Join(cfg.Scripting.ScriptDir, id)
	if !isDir(dir) {
		return nil
	}
	return scripts.LoadScope(e.ID(), dir, cfg.Scripting.InstructionLimit)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// verifyReplay re-runs the journal from the opening snapshot and requires the
// replayed encounter to match e exactly.
func verifyReplay(ctx context.Context, opening *encounter.Snapshot, e *encounter.Encounter, conditions *condition.Registry) error {
	raw, err := json.Marshal(opening)
	if err != nil {
		return err
	}
	var snap encounter.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return err
	}
	replayed, err := encounter.Replay(ctx, &snap, e.Journal(), conditions, zap.NewNop())
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	want, err := e.Snapshot()
	if err != nil {
		return err
	}
	got, err := replayed.Snapshot()
	if err != nil {
		return err
	}
	if err := sameJSON("final snapshot", want, got); err != nil {
		return err
	}
	if err := sameJSON("event log", e.State().EventsSince(opening.Seq), replayed.Events()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "replay verified: %d commands, %d events\n", len(e.Journal()), len(replayed.Events()))
	return nil
}

func sameJSON(what string, want, got any) error {
	a, err := json.Marshal(want)
	if err != nil {
		return err
	}
	b, err := json.Marshal(got)
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) {
		return fmt.Errorf("replay diverged: %s differs", what)
	}
	return nil
}
