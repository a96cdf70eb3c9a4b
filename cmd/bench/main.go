// README: Smoke and load runner for a deployed trips API; prints PASS/FAIL per case and a summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL         string
	DriverToken     string
	PassengerToken  string
	PassengerUserID string
	DSN             string
	RedisAddr       string
	EventsChannel   string
	Strict          bool
	Timeout         time.Duration
	Concurrency     int
	Duration        time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("TRIPS_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&cfg.DriverToken, "driver-token", os.Getenv("TRIPS_BENCH_DRIVER_TOKEN"), "Firebase ID token of the driver account")
	flag.StringVar(&cfg.PassengerToken, "passenger-token", os.Getenv("TRIPS_BENCH_PASSENGER_TOKEN"), "Firebase ID token of the passenger account")
	flag.StringVar(&cfg.PassengerUserID, "passenger-user-id", envOrDefault("TRIPS_BENCH_PASSENGER_USER_ID", "bench-passenger"), "user_id of the passenger account")
	flag.StringVar(&cfg.DSN, "dsn", os.Getenv("TRIPS_DB_DSN"), "Postgres DSN (optional)")
	flag.StringVar(&cfg.RedisAddr, "redis", os.Getenv("TRIPS_REDIS_ADDR"), "Redis address (optional)")
	flag.StringVar(&cfg.EventsChannel, "events-channel", envOrDefault("TRIPS_EVENTS_CHANNEL", "trip-events"), "Redis channel carrying trip events")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("TRIPS_BENCH_STRICT", false), "Fail when cases are skipped")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("TRIPS_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
	flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("TRIPS_BENCH_CONCURRENCY", 10), "Workers for load cases")
	flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("TRIPS_BENCH_DURATION", 5*time.Second), "Duration of load cases")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
