package httpserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sightings/internal/domain"
	"github.com/MrSnakeDoc/sightings/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sightings/internal/logger"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testDeps() deps.Deps {
	return deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: testNow.Add(-time.Hour),
		Version:   "v1.2.3",
		TimeNow:   func() time.Time { return testNow },
	}
}

func serve(t *testing.T, d deps.Deps, path, remote string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	NewRouter(d.Logger, d).ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(t, testDeps(), "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status        string  `json:"status"`
		UptimeSeconds float64 `json:"uptime_seconds"`
		Version       string  `json:"version"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Version != "v1.2.3" || body.UptimeSeconds != 3600 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name  string
		ready func() bool
		want  int
	}{
		{name: "no probe", ready: nil, want: http.StatusServiceUnavailable},
		{name: "starting", ready: func() bool { return false }, want: http.StatusServiceUnavailable},
		{name: "running", ready: func() bool { return true }, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDeps()
			d.Ready = tt.ready
			if rec := serve(t, d, "/readyz", ""); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	d := testDeps()
	if rec := serve(t, d, "/api/stats", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without snapshot = %d, want 503", rec.Code)
	}

	snap := domain.NewCollectionStats(testNow.Add(-2 * time.Hour))
	snap.RecordRun(7, testNow.Add(-time.Minute))
	d.Snapshot = func() *domain.CollectionStats { return snap }

	rec := serve(t, d, "/api/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		TotalRuns      int64   `json:"total_runs"`
		TotalSightings int64   `json:"total_sightings"`
		UptimeSeconds  float64 `json:"uptime_seconds"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.TotalRuns != 1 || body.TotalSightings != 7 || body.UptimeSeconds != 7200 {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestStatsAllowList(t *testing.T) {
	d := testDeps()
	d.AllowedCIDRS = []string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"}
	d.Snapshot = func() *domain.CollectionStats { return domain.NewCollectionStats(testNow) }

	tests := []struct {
		remote string
		want   int
	}{
		{remote: "10.1.2.3:5555", want: http.StatusOK},
		{remote: "192.168.1.5:80", want: http.StatusOK},
		{remote: "192.168.1.6:80", want: http.StatusForbidden},
		{remote: "[::ffff:10.0.0.1]:80", want: http.StatusOK},
		{remote: "garbage", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			if rec := serve(t, d, "/api/stats", tt.remote); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	// Probes stay open.
	if rec := serve(t, d, "/healthz", "203.0.113.9:1"); rec.Code != http.StatusOK {
		t.Errorf("healthz behind allow-list = %d, want 200", rec.Code)
	}
}

func TestServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := New(ln.Addr().String(), logger.NewNop(), testDeps())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve() error after Stop: %v", err)
	}
}
