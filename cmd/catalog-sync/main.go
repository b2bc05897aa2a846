// Command catalog-sync fills the nutrition table from USDA FoodData Central.
//
//	catalog-sync -in foods.json -out foods.json -query oatmeal -query "teh_tarik=tea with milk"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/foodlens/backend/config"
	"github.com/foodlens/backend/internal/infrastructure/catalogfile"
	"github.com/foodlens/backend/internal/infrastructure/usda"
)

// queryFlags collects repeated -query values
type queryFlags []string

func (q *queryFlags) String() string { return strings.Join(*q, ", ") }

func (q *queryFlags) Set(v string) error {
	*q = append(*q, v)
	return nil
}

func main() {
	var (
		in      = flag.String("in", "", "nutrition table to start from (default: embedded table)")
		out     = flag.String("out", "food_database.json", "where to write the merged table")
		portion = flag.Float64("portion", 0, "reference portion in grams for new rows (0: catalog default)")
		queries queryFlags
	)
	flag.Var(&queries, "query", "food to fetch, as \"search terms\" or \"name=search terms\" (repeatable)")
	flag.Parse()

	if err := run(*in, *out, *portion, queries); err != nil {
		fmt.Fprintf(os.Stderr, "catalog-sync: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string, portion float64, rawQueries []string) error {
	if len(rawQueries) == 0 {
		return fmt.Errorf("at least one -query is required")
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.USDA.APIKey == "" {
		return fmt.Errorf("USDA API key is required (set FOODLENS_USDA_API_KEY)")
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	queries := make([]syncQuery, 0, len(rawQueries))
	for _, raw := range rawQueries {
		q, err := parseQuery(raw)
		if err != nil {
			return err
		}
		queries = append(queries, q)
	}

	base, err := catalogfile.Read(in)
	if err != nil {
		return err
	}

	client := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL)
	client.SetLogger(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	updates, err := fetchEntries(ctx, client, queries, portion, logger)
	if err != nil {
		return err
	}

	merged := catalogfile.Merge(base, updates)
	data, err := catalogfile.Encode(merged)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("nutrition table written",
		zap.String("path", out),
		zap.Int("fetched", len(updates)),
		zap.Int("entries", len(merged)))
	return nil
}
