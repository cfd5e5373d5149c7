package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/cognicore/cabin/pkg/cabin/config"
	"github.com/cognicore/cabin/pkg/cabin/normalize"
	"github.com/cognicore/cabin/pkg/cabin/store"
	"github.com/cognicore/cabin/pkg/cabin/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config naming the catalog and table files (required)")
		dbPath     = flag.String("db", "", "Target SQLite database (defaults to store.path from the config)")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	target := *dbPath
	if target == "" {
		target = cfg.Store.Path
	}
	if target == "" {
		log.Fatal("--db required when the config has no store.path")
	}

	ctx := context.Background()
	if err := run(ctx, cfg, target, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config, dbPath string, logger *slog.Logger) error {
	if cfg.Catalog.Settings == "" {
		return fmt.Errorf("config names no settings file to import")
	}

	comp, err := cfg.Loader().Load()
	if err != nil {
		return fmt.Errorf("load components: %w", err)
	}

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return importComponents(ctx, st, comp, logger)
}

// importComponents replaces the stored catalog and tables with comp.
func importComponents(ctx context.Context, st store.Store, comp *config.Components, logger *slog.Logger) error {
	if err := st.SaveCatalog(ctx, comp.Catalog); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	logger.Info("imported catalog", "settings", comp.Catalog.Len())

	tables := []struct {
		name string
		n    *normalize.Normalizer
	}{
		{store.TableAmountPercentage, comp.Amounts},
		{store.TableAmountType, comp.Types},
		{store.TableAmountUnit, comp.Units},
		{store.TableIndex, comp.Indexes},
	}
	for _, t := range tables {
		if t.n == nil || t.n.Len() == 0 {
			logger.Warn("skipping empty table", "table", t.name)
			continue
		}
		if err := st.SaveTable(ctx, t.name, t.n.Entries()); err != nil {
			return fmt.Errorf("save %s table: %w", t.name, err)
		}
		logger.Info("imported table", "table", t.name, "aliases", t.n.Len())
	}
	return nil
}
