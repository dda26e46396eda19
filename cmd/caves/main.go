// Package main is the entry point for caves.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/samdwyer/caves/internal/config"
	"github.com/samdwyer/caves/internal/game"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/storage"
	"github.com/samdwyer/caves/internal/telemetry"
	"github.com/samdwyer/caves/internal/ui"
	"github.com/samdwyer/caves/internal/world"
)

type flags struct {
	seed   string
	config string
	level  int
	dump   bool
	all    bool
	save   string
	load   string
	list   bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.seed, "seed", "", "world seed: an integer or any text (default: config, CAVES_SEED, then random)")
	flag.StringVar(&f.config, "config", "", "YAML configuration file (default: CAVES_CONFIG)")
	flag.IntVar(&f.level, "level", 0, "level to start on or to dump")
	flag.BoolVar(&f.dump, "dump", false, "print the level as text instead of opening the viewer")
	flag.BoolVar(&f.all, "all", false, "with -dump, generate and print every level")
	flag.StringVar(&f.save, "save", "", "snapshot name to save the session under on exit")
	flag.StringVar(&f.load, "load", "", "snapshot name to restore")
	flag.BoolVar(&f.list, "list", false, "list saved snapshots and exit")
	flag.Parse()
	return f
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not loaded: %v\n", err)
	}
	logger.Init()

	if err := run(context.Background(), parseFlags()); err != nil {
		logger.Log.WithError(err).Fatal("caves failed")
	}
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}

	var store storage.Store
	if f.save != "" || f.load != "" || f.list || !f.dump {
		store, err = storage.Open(cfg.Storage, logger.Log)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if f.list {
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	monsters, items, err := loadRegistries(cfg)
	if err != nil {
		return err
	}
	opts := []game.Option{
		game.WithLogger(logger.Log),
		game.WithRegistries(monsters, items),
	}

	seed, snap, err := resolveSession(cfg, f, store)
	if err != nil {
		return err
	}

	// Tracing starts before the world exists so restore-time generation is traced.
	if telemetry.Enabled() {
		shutdown, err := telemetry.Setup(ctx, uint64(seed))
		if err != nil {
			logger.Log.WithError(err).Warn("telemetry setup failed, running without tracing")
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Log.WithError(err).Warn("telemetry shutdown failed")
				}
			}()
		}
	}

	w, err := openWorld(ctx, cfg, seed, snap, opts)
	if err != nil {
		return err
	}

	if f.dump {
		err = dump(ctx, w, f)
	} else {
		err = view(ctx, w, cfg, f, store, items)
	}
	if err != nil {
		return err
	}

	if f.save != "" {
		if err := store.Save(f.save, w.Snapshot()); err != nil {
			return err
		}
		logger.Log.WithField("name", f.save).Info("session saved")
	}
	return nil
}

// loadRegistries returns the monster and item tables, read from the data
// directory when one is configured and from the embedded files otherwise.
func loadRegistries(cfg *config.Config) (*gamedata.MonsterRegistry, *gamedata.ItemRegistry, error) {
	if cfg.DataDir == "" {
		monsters, err := gamedata.LoadMonsterRegistry()
		if err != nil {
			return nil, nil, err
		}
		items, err := gamedata.LoadItemRegistry()
		if err != nil {
			return nil, nil, err
		}
		return monsters, items, nil
	}

	fsys := os.DirFS(cfg.DataDir)
	monsters, err := gamedata.LoadMonsterRegistryFrom(fsys)
	if err != nil {
		return nil, nil, err
	}
	items, err := gamedata.LoadItemRegistryFrom(fsys)
	if err != nil {
		return nil, nil, err
	}
	return monsters, items, nil
}

// resolveSession returns the seed of the session and, with -load, the
// snapshot it resumes.
func resolveSession(cfg *config.Config, f flags, store storage.Store) (rng.Seed, *game.Snapshot, error) {
	if f.load != "" {
		snap, err := store.Load(f.load)
		if err != nil {
			return 0, nil, err
		}
		return snap.Seed, snap, nil
	}

	seed, err := cfg.ResolveSeed(f.seed)
	if err != nil {
		return 0, nil, err
	}
	return seed, nil, nil
}

func openWorld(ctx context.Context, cfg *config.Config, seed rng.Seed, snap *game.Snapshot, opts []game.Option) (*game.World, error) {
	if snap != nil {
		return game.Restore(ctx, snap, cfg.Game, opts...)
	}
	logger.Log.WithField("seed", seed.String()).Info("creating world")
	return game.NewWorld(seed, cfg.Game, opts...)
}

func dump(ctx context.Context, w *game.World, f flags) error {
	indices := []int{f.level}
	if f.all {
		if err := w.Pregenerate(ctx); err != nil {
			return err
		}
		indices = w.GeneratedLevels()
	}

	fmt.Printf("seed %s\n", w.Seed())
	for _, index := range indices {
		lvl, err := w.GetLevel(ctx, index)
		if err != nil {
			return err
		}
		ents, err := w.Entities(ctx, index)
		if err != nil {
			return err
		}

		overlay := make(map[world.Pos]rune, len(ents))
		for _, e := range ents {
			overlay[e.Pos] = e.Glyph()
		}
		fmt.Printf("\nlevel %d (%dx%d, %d rooms, %d entities, fingerprint %016x)\n",
			index, lvl.Width, lvl.Height, len(lvl.Rooms), len(ents), lvl.Fingerprint())
		fmt.Print(lvl.Render(overlay))
	}

	counts := map[string]int{}
	for _, index := range indices {
		ents, err := w.Entities(ctx, index)
		if err != nil {
			return err
		}
		for _, e := range ents {
			counts[e.Kind.String()]++
		}
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fields := logrus.Fields{"treasure_keys": w.TotalTreasureKeys()}
	for _, k := range kinds {
		fields[k] = counts[k]
	}
	logger.Log.WithFields(fields).Info("levels dumped")
	return nil
}

func view(ctx context.Context, w *game.World, cfg *config.Config, f flags, store storage.Store, items *gamedata.ItemRegistry) error {
	screen, err := ui.NewScreen()
	if err != nil {
		return err
	}

	// The viewer owns the terminal, so logs go nowhere while it runs.
	out := logger.Log.Out
	logger.Log.SetOutput(io.Discard)
	defer logger.Log.SetOutput(out)

	renderer := ui.NewRenderer(screen, gamedata.DefaultPalette(), items, cfg.Display.GetScale())
	v, err := ui.NewViewer(ctx, w, screen, renderer, f.level)
	if err != nil {
		screen.Close()
		return err
	}

	name := f.save
	if name == "" {
		name = "quicksave"
	}
	v.WithSaver(func(snap *game.Snapshot) error {
		return store.Save(name, snap)
	})
	return v.Run(ctx)
}
