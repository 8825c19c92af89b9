package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/whodunit"
	"github.com/aretw0/whodunit/internal/config"
	"github.com/aretw0/whodunit/pkg/adapters/memory"
	"github.com/aretw0/whodunit/pkg/adapters/openai"
	"github.com/aretw0/whodunit/pkg/adapters/redis"
	"github.com/aretw0/whodunit/pkg/characters"
	"github.com/aretw0/whodunit/pkg/domain"
	"github.com/aretw0/whodunit/pkg/persistence"
	"github.com/aretw0/whodunit/pkg/ports"
	"github.com/aretw0/whodunit/pkg/scenario"
)

// app is the wired engine plus what the commands need around it.
type app struct {
	engine *whodunit.Engine
	pool   []domain.Character
	cast   characters.CastFunc
	// fixed is the scenario every session plays, when there is one.
	fixed *scenario.Scenario
	// bind is set when fixed came from a file and is bound without generation.
	bind  bool
	close func() error
}

type appOptions struct {
	offline  bool
	scenario *scenario.Scenario
	extra    []whodunit.Option
}

// newApp wires the engine from cfg. Without an API key the game runs
// offline: scripted suspects and the built-in manor mystery.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, o appOptions) (*app, error) {
	a := &app{close: func() error { return nil }}

	var rng *rand.Rand
	if cfg.Game.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Game.Seed, cfg.Game.Seed))
	}

	a.pool = characters.Default()
	if cfg.Game.CharactersDir != "" {
		pool, err := characters.LoadDir(cfg.Game.CharactersDir, characters.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("load characters: %w", err)
		}
		a.pool = pool
	}

	journal := memory.NewJournal()
	opts := []whodunit.Option{
		whodunit.WithSettings(cfg.GameSettings()),
		whodunit.WithRecall(journal),
		whodunit.WithLifecycleHooks(journal.Hooks()),
		whodunit.WithLogger(logger),
	}

	offline := o.offline || cfg.LLM.APIKey == ""
	if offline {
		if !o.offline {
			logger.Warn("LLM_API_KEY not set, playing offline")
		}
		a.fixed = memory.DefaultScenario()
		opts = append(opts,
			whodunit.WithOracle(memory.NewOracle(rng)),
			whodunit.WithGenerator(memory.NewGenerator(a.fixed)),
		)
	} else {
		client := openai.New(cfg.OpenAI(), openai.WithLogger(logger))
		opts = append(opts,
			whodunit.WithOracle(client),
			whodunit.WithGenerator(client),
			whodunit.WithNarrator(client),
		)
	}
	if o.scenario != nil {
		a.fixed = o.scenario
		a.bind = true
	}

	if a.fixed != nil {
		sc := a.fixed
		pool := a.pool
		a.cast = func(context.Context) ([]domain.Character, domain.Character, error) {
			return characters.CastFor(sc, pool)
		}
	} else {
		a.cast = characters.RandomCast(a.pool, cfg.Game.NPCCount, rng)
	}

	var store ports.SnapshotStore = memory.NewSnapshotStore()
	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("using redis for locks and snapshots", "addr", cfg.Redis.Addr)
		opts = append(opts, whodunit.WithLocker(redis.NewLocker(client, cfg.Redis.Prefix)))
		store = redis.NewSnapshotStore(client, cfg.Redis.Prefix)
		a.close = client.Close
	}
	enc, err := cfg.Encryption()
	if err != nil {
		a.close()
		return nil, err
	}
	if enc != nil {
		mw, err := persistence.Encrypt(*enc)
		if err != nil {
			a.close()
			return nil, err
		}
		store = persistence.Chain(store, mw)
	}
	opts = append(opts, whodunit.WithSnapshotStore(store))

	a.engine = whodunit.New(append(opts, o.extra...)...)
	return a, nil
}

// begin starts a session for player and binds its scenario.
func (a *app) begin(ctx context.Context, player domain.Character) (string, error) {
	npcs, victim, err := a.cast(ctx)
	if err != nil {
		return "", fmt.Errorf("cast: %w", err)
	}
	snap, err := a.engine.StartSession(ctx, player, npcs, victim)
	if err != nil {
		return "", err
	}
	if a.bind {
		_, err = a.engine.BindScenario(ctx, snap.SessionID, a.fixed)
	} else {
		_, err = a.engine.GenerateScenario(ctx, snap.SessionID)
	}
	if err != nil {
		return "", err
	}
	return snap.SessionID, nil
}
