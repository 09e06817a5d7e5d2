package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"quotevault-api/internal/config"
)

// ConfigSummaryLines returns human readable lines describing the loaded
// service configuration.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Postgres: %s", presence(cfg.Postgres.DSN != "")),
		fmt.Sprintf("Redis: %s", presence(strings.TrimSpace(cfg.Redis.Host) != "")),
		fmt.Sprintf("Cache prefix: %s", cfg.Cache.KeyPrefix),
		fmt.Sprintf("TTL (rt/intra/daily/weekly/monthly): %ds / %ds / %ds / %ds / %ds",
			cfg.Cache.TTL.RealTime, cfg.Cache.TTL.Intraday, cfg.Cache.TTL.Daily, cfg.Cache.TTL.Weekly, cfg.Cache.TTL.Monthly),
		fmt.Sprintf("Market hours multiplier: %.2f", cfg.Cache.MarketHoursMultiplier),
		fmt.Sprintf("Refresh symbols: %v", cfg.Refresh.Symbols),
		fmt.Sprintf("Refresh every: %s (max %d concurrent, %s per fetch)",
			cfg.RefreshEvery(), cfg.Refresh.MaxConcurrent, cfg.FetchTimeout()),
		fmt.Sprintf("Retention: %d days (cleanup %q)", cfg.Refresh.RetentionDays, cfg.Refresh.CleanupSpec),
		sectionLine("Market config", cfg.Market.File),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func sectionLine(label, file string) string {
	if file == "" {
		return fmt.Sprintf("%s: built-in defaults", label)
	}
	return fmt.Sprintf("%s: %s", label, file)
}
