// README: Bench cases; walks a trip through its lifecycle over HTTP and checks the optional backends.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

// route used by every scenario: Portal Norte to Universidad de La Sabana
var (
	routeStart = map[string]any{"address": "Portal Norte, Bogotá", "coordinates": map[string]any{"lat": 4.7545, "lng": -74.0463}}
	routeDest  = map[string]any{"address": "Universidad de La Sabana, Chía", "coordinates": map[string]any{"lat": 4.8615, "lng": -74.0324}}
	searchPath = "/api/trips?search=true&fromLat=4.808&fromLng=-74.03935&toLat=4.8615&toLng=-74.0324"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	tripID string
	events atomic.Int64
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		r.watchEvents(ctx)
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// watchEvents counts trip events published while the cases run.
func (r *Runner) watchEvents(ctx context.Context) {
	sub := r.redis.Subscribe(ctx, r.cfg.EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return
	}
	go func() {
		defer sub.Close()
		for range sub.Channel() {
			r.events.Add(1)
		}
	}()
}

func (r *Runner) hasTokens() bool {
	return r.cfg.DriverToken != "" && r.cfg.PassengerToken != ""
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{
			Name: "Env: Postgres documents table",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				var exists bool
				err := r.db.QueryRow(ctx,
					"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
					"documents",
				).Scan(&exists)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if !exists {
					return Result{Status: statusFail, Note: "missing table: documents"}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},

		expect("API: health", http.MethodGet, "/health", "", nil, http.StatusOK),
		expect("API: missing token -> 401", http.MethodGet, "/api/trips", "", nil, http.StatusUnauthorized),
		expect("API: DELETE -> 405", http.MethodDelete, "/api/trips", "", nil, http.StatusMethodNotAllowed),

		{
			Name: "Trip: driver posts trip",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.hasTokens() {
					return Result{Status: statusSkip, Note: "tokens not configured"}
				}
				id, res := r.postTrip(ctx, 2)
				r.tripID = id
				return res
			},
		},
		withTrip("Trip: invalid seats -> 400", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPost, "/api/trips", r.cfg.DriverToken, map[string]any{
				"start": routeStart, "destination": routeDest,
				"time": departure(), "seats": "none", "fare": 5000,
			}, http.StatusBadRequest)
		}),
		withTrip("Search: passenger finds trip on route", func(ctx context.Context, r *Runner) Result {
			var body struct {
				Trips []struct {
					ID string `json:"trip_id"`
				} `json:"trips"`
			}
			res := r.call(ctx, http.MethodGet, searchPath, r.cfg.PassengerToken, nil, http.StatusOK, &body)
			if res.Status != statusPass {
				return res
			}
			for _, t := range body.Trips {
				if t.ID == r.tripID {
					return res
				}
			}
			res.Status, res.Note = statusFail, fmt.Sprintf("trip %s not in %d results", r.tripID, len(body.Trips))
			return res
		}),
		withTrip("Apply: passenger joins waitlist", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.PassengerToken, r.patch(""), http.StatusOK)
		}),
		withTrip("Apply: duplicate -> 400", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.PassengerToken, r.patch(""), http.StatusBadRequest)
		}),
		withTrip("Apply: driver on own trip -> 400", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, r.patch(""), http.StatusBadRequest)
		}),
		withTrip("Accept: passenger cannot accept -> 403", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.PassengerToken, r.patch("accept"), http.StatusForbidden)
		}),
		withTrip("Accept: driver accepts passenger", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, r.patch("accept"), http.StatusOK)
		}),
		withTrip("List: passenger sees trip", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodGet, "/api/trips?role=passenger", r.cfg.PassengerToken, nil, http.StatusOK)
		}),
		withTrip("Remove: driver removes passenger", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, r.patch("remove_passenger"), http.StatusOK)
		}),
		withTrip("Cancel: driver cancels trip", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, r.patch("cancel"), http.StatusOK)
		}),
		withTrip("Cancel: second cancel -> 400", func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, r.patch("cancel"), http.StatusBadRequest)
		}),
		{
			Name: "Events: lifecycle published",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil || r.tripID == "" {
					return Result{Status: statusSkip, Note: "needs redis and a posted trip"}
				}
				time.Sleep(500 * time.Millisecond)
				if n := r.events.Load(); n > 0 {
					return Result{Status: statusPass, Note: fmt.Sprintf("events=%d", n)}
				}
				return Result{Status: statusFail, Note: "no events received"}
			},
		},

		{
			Name: "Concurrency: parallel applies by one passenger",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.hasTokens() {
					return Result{Status: statusSkip, Note: "tokens not configured"}
				}
				return concurrentApply(ctx, r)
			},
		},
		{
			Name: "Perf: search throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.hasTokens() {
					return Result{Status: statusSkip, Note: "tokens not configured"}
				}
				return perfLoad(ctx, r, searchPath)
			},
		},
	}
}

func expect(name, method, path, token string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return r.check(ctx, method, path, token, body, want)
		},
	}
}

// withTrip skips the case until a trip has been posted.
func withTrip(name string, run func(ctx context.Context, r *Runner) Result) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if r.tripID == "" {
				return Result{Status: statusSkip, Note: "no trip posted"}
			}
			return run(ctx, r)
		},
	}
}

func departure() string {
	return time.Now().Add(2 * time.Hour).UTC().Format(time.RFC3339)
}

func (r *Runner) patch(action string) map[string]any {
	body := map[string]any{"trip_id": r.tripID, "user_id": r.cfg.PassengerUserID}
	if action != "" {
		body["action"] = action
	}
	return body
}

func (r *Runner) postTrip(ctx context.Context, seats int) (string, Result) {
	var body struct {
		TripID string `json:"trip_id"`
	}
	res := r.call(ctx, http.MethodPost, "/api/trips", r.cfg.DriverToken, map[string]any{
		"start":         routeStart,
		"destination":   routeDest,
		"time":          departure(),
		"seats":         seats,
		"fare":          6000,
		"extra_minutes": 10,
	}, http.StatusCreated, &body)
	if res.Status == statusPass && body.TripID == "" {
		res.Status, res.Note = statusFail, "response without trip_id"
	}
	return body.TripID, res
}

func (r *Runner) check(ctx context.Context, method, path, token string, body any, want int) Result {
	return r.call(ctx, method, path, token, body, want, nil)
}

// call sends one request and decodes the response into out when the status matches.
func (r *Runner) call(ctx context.Context, method, path, token string, body any, want int, out any) Result {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	latency := time.Since(start)

	if resp.StatusCode != want {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d body=%s", resp.StatusCode, bytes.TrimSpace(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return Result{Status: statusFail, Latency: latency, Note: "decode: " + err.Error()}
		}
	}
	return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

// concurrentApply fires the same application from several goroutines. The
// waitlist must end up holding the passenger once.
func concurrentApply(ctx context.Context, r *Runner) Result {
	id, res := r.postTrip(ctx, 1)
	if res.Status != statusPass {
		return res
	}
	b, _ := json.Marshal(map[string]any{"trip_id": id, "user_id": r.cfg.PassengerUserID})

	var wg sync.WaitGroup
	var ok atomic.Int64
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPatch, r.cfg.BaseURL+"/api/trips", bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+r.cfg.PassengerToken)
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	var body struct {
		Trips []struct {
			Waitlist []any `json:"waitlist"`
		} `json:"trips"`
	}
	res = r.call(ctx, http.MethodGet, "/api/trips?ids="+id, r.cfg.PassengerToken, nil, http.StatusOK, &body)
	if res.Status != statusPass {
		return res
	}
	// leave nothing open behind
	r.call(ctx, http.MethodPatch, "/api/trips", r.cfg.DriverToken, map[string]any{"trip_id": id, "action": "cancel"}, http.StatusOK, nil)

	if len(body.Trips) != 1 || len(body.Trips[0].Waitlist) != 1 {
		return Result{Status: statusFail, Note: fmt.Sprintf("accepted=%d trips=%d", ok.Load(), len(body.Trips))}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("accepted=%d waitlist=1", ok.Load())}
}

func perfLoad(ctx context.Context, r *Runner, path string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+path, nil)
				req.Header.Set("Authorization", "Bearer "+r.cfg.PassengerToken)
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}
