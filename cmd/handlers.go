package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dnsfifo/internal/cache"
	"dnsfifo/internal/stress"
)

type statsSource interface {
	Stats() cache.Stats
}

type progressSource interface {
	Progress() stress.Summary
}

func newMux(c statsSource, p progressSource, g prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats", handleStats(c, p))
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

func handleStats(c statsSource, p progressSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := c.Stats()
		progress := p.Progress()

		response := struct {
			Cache   cache.Stats    `json:"cache"`
			HitRate float64        `json:"hit_rate"`
			Run     stress.Summary `json:"run"`
			Uptime  string         `json:"uptime"`
		}{
			Cache:   stats,
			HitRate: hitRate(stats),
			Run:     progress,
			Uptime:  formatUptime(progress.Elapsed),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func hitRate(s cache.Stats) float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups) * 100
}
