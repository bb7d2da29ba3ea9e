package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/sirupsen/logrus"
)

// ENABLE_REPORT_CACHE=true turns on redis caching of report payloads.
func reportCacheEnabled() bool {
	return config.BoolFromEnv("ENABLE_REPORT_CACHE")
}

// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
func reportCacheTTL() time.Duration {
	return config.DurationFromEnv("REPORT_CACHE_TTL_SECONDS", 120*time.Second)
}

// Env: REPORT_SLOW_MS (default 500ms)
func reportSlowMs() int64 {
	return int64(config.IntFromEnv("REPORT_SLOW_MS", 500))
}

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < reportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow_report")
}

func cacheKey(name string, parts ...any) string {
	s := make([]string, 0, len(parts)+1)
	s = append(s, name)
	for _, p := range parts {
		s = append(s, fmt.Sprint(p))
	}
	return config.ReportCachePrefix + strings.Join(s, ":")
}

func cacheGet[T any](key string, dest *T) bool {
	if !reportCacheEnabled() {
		return false
	}
	found, err := config.GetRedisObject(key, dest)
	if err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheGet", "reading cached report", key, err)
		return false
	}
	return found
}

func cacheSet(key string, obj any) {
	if !reportCacheEnabled() {
		return
	}
	if err := config.SetRedisObject(key, obj, reportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheSet", "caching report", key, err)
	}
}
