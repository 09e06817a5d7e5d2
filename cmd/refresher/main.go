package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"quotevault-api/internal/cli"
	"quotevault-api/internal/config"
	"quotevault-api/internal/svc"
	"quotevault-api/pkg/timeline"
)

const shutdownTimeout = 10 * time.Second

var configFile = flag.String("f", "etc/quotevault.yaml", "the config file")

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting refresher...")

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}
	if err := cfg.SetUp(); err != nil {
		log.Fatalf("[main] Failed to set up service: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(cfg) {
		log.Printf("  - %s", line)
	}

	interval, err := timeline.ParseInterval(cfg.Refresh.Interval)
	if err != nil {
		log.Fatalf("[main] Invalid refresh interval: %v", err)
	}
	if len(cfg.Refresh.Symbols) == 0 {
		log.Fatalf("[main] No refresh symbols configured")
	}

	svcCtx := svc.NewServiceContext(*cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Periodic bulk refresh sweep.
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRefreshLoop(ctx, svcCtx, cfg, interval)
	}()

	// Retention cleanup on a cron schedule.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Refresh.CleanupSpec, func() {
		cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		deleted := svcCtx.Cache.CleanupOldData(cleanupCtx, cfg.Refresh.RetentionDays)
		total := 0
		for _, n := range deleted {
			total += n
		}
		log.Printf("[cleanup] Removed %d points across %d symbols", total, len(deleted))
	}); err != nil {
		log.Fatalf("[main] Failed to register cleanup schedule: %v", err)
	}
	scheduler.Start()

	<-ctx.Done()
	log.Println("[main] Shutdown signal received")

	cronCtx := scheduler.Stop()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		<-cronCtx.Done()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] Clean shutdown")
	case <-time.After(shutdownTimeout):
		log.Println("[main] Shutdown timeout exceeded, exiting")
	}
}

func runRefreshLoop(ctx context.Context, svcCtx *svc.ServiceContext, cfg *config.Config, interval timeline.Interval) {
	ticker := time.NewTicker(cfg.RefreshEvery())
	defer ticker.Stop()

	refresh := func() {
		started := time.Now()
		results := svcCtx.Cache.BulkRefreshSymbols(ctx, cfg.Refresh.Symbols, interval, cfg.Refresh.MaxConcurrent)
		ok := 0
		for _, succeeded := range results {
			if succeeded {
				ok++
			}
		}
		stats := svcCtx.Cache.CacheStats()
		log.Printf("[refresh] %d/%d symbols ok in %s (hit rate %.2f, %d timelines, %d points in memory)",
			ok, len(results), time.Since(started).Round(time.Millisecond),
			stats.Service.CacheHitRate, stats.TimelinesInMem, stats.PointsInMemory)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
