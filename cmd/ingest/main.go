package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/angelmondragon/stockroom-backend/internal/ingest"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/instance"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/angelmondragon/stockroom-backend/pkg/migrate"
)

const pushJobName = "stockroom_ingest"

func main() {
	logg := logger.New(logger.Options{ServiceName: "ingest"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	inventoryPath := flag.String("inventory", cfg.Ingest.InventoryPath, "inventory CSV path (empty skips)")
	ordersPath := flag.String("orders", cfg.Ingest.OrdersPath, "orders CSV path (empty skips)")
	delimiter := flag.String("delimiter", cfg.Ingest.Delimiter, "single-character field delimiter")
	pushGateway := flag.String("push-gateway", cfg.Metrics.PushgatewayURL, "prometheus pushgateway URL (empty disables push)")
	flag.Parse()

	logg = logger.New(logger.Options{
		ServiceName: "ingest",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg, *inventoryPath, *ordersPath, *delimiter, *pushGateway); err != nil {
		logg.Error(context.Background(), "ingest failed", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger, inventoryPath, ordersPath, delimiter, pushGateway string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sep, err := parseDelimiter(delimiter)
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	loader, err := ingest.NewLoader(dbClient, logg, ingest.Options{
		Delimiter: sep,
		Metrics:   metrics.NewIngestMetrics(reg),
	})
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	// inventory first: order rows reference inventory product ids
	jobs := []struct {
		kind string
		path string
	}{
		{kind: ingest.KindInventory, path: inventoryPath},
		{kind: ingest.KindOrders, path: ordersPath},
	}
	for _, job := range jobs {
		if job.path == "" {
			logg.Info(logg.WithField(ctx, "kind", job.kind), "ingest skipped, no path")
			continue
		}
		report, err := loader.LoadFile(ctx, job.kind, job.path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: read=%d inserted=%d skipped=%d rounded=%d\n", report.Kind, report.Read, report.Inserted, report.Skipped, report.Rounded)
	}

	if pushGateway != "" {
		if err := push.New(pushGateway, pushJobName).
			Grouping("instance", instance.GetID()).
			Gatherer(reg).
			PushContext(ctx); err != nil {
			logg.Error(ctx, "failed to push ingest metrics", err)
		}
	}
	return nil
}

func parseDelimiter(raw string) (rune, error) {
	if raw == "" {
		return ',', nil
	}
	if raw == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(raw) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", raw)
	}
	r, _ := utf8.DecodeRuneInString(raw)
	return r, nil
}
