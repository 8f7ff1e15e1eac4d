package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sysora/frontdesk/internal/dashboard"
	"github.com/sysora/frontdesk/internal/ratelimit"
)

func newService(t *testing.T) *dashboard.Service {
	t.Helper()
	svc, err := dashboard.New(nil, dashboard.WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestHandleDashboard(t *testing.T) {
	h := NewHandlers(newService(t))
	rec := httptest.NewRecorder()
	h.HandleDashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var snap dashboard.Snapshot
	if err := json.Unmarshal(decode(t, rec).Data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Overview.TotalRooms != 45 || len(snap.Alerts) == 0 {
		t.Errorf("snapshot = %+v", snap.Overview)
	}
}

func TestHandleStatus(t *testing.T) {
	svc := newService(t)
	h := NewHandlers(svc)

	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil))
	if !strings.Contains(string(decode(t, rec).Data), `"state":"uninitialized"`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	svc.GetData(context.Background())
	rec = httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/status", nil))
	data := string(decode(t, rec).Data)
	if !strings.Contains(data, `"state":"ready"`) || !strings.Contains(data, `"lastUpdate"`) {
		t.Errorf("body = %s", data)
	}
}

func TestHandleRefresh_Throttled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := ratelimit.New(&ratelimit.Config{Cooldown: 10 * time.Second, Clock: clock})
	t.Cleanup(limiter.Close)
	h := NewHandlers(newService(t), WithRefreshLimiter(limiter, false))

	refresh := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/refresh", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.HandleRefresh(rec, req)
		return rec
	}

	if rec := refresh(); rec.Code != http.StatusOK {
		t.Fatalf("first refresh status = %d", rec.Code)
	}

	clock.Advance(3500 * time.Millisecond)
	rec := refresh()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second refresh status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "7" {
		t.Errorf("Retry-After = %q, want 7", got)
	}
	if env := decode(t, rec); env.Success {
		t.Error("throttled refresh reported success")
	}

	clock.Advance(7 * time.Second)
	if rec := refresh(); rec.Code != http.StatusOK {
		t.Errorf("refresh after cooldown status = %d", rec.Code)
	}
}

func TestHandleRefresh_WrongMethod(t *testing.T) {
	h := NewHandlers(newService(t))
	rec := httptest.NewRecorder()
	h.HandleRefresh(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/refresh", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Allow = %q", rec.Header().Get("Allow"))
	}
}

func TestHandleMarkAlertRead(t *testing.T) {
	svc := newService(t)
	h := NewHandlers(svc)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dashboard/alerts/{id}/read", h.HandleMarkAlertRead)

	before := svc.GetData(context.Background()).UnreadAlerts()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/alerts/ALERT-001/read", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if after := svc.GetData(context.Background()).UnreadAlerts(); after != before-1 {
		t.Errorf("unread = %d, want %d", after, before-1)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/alerts/NOPE/read", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown alert status = %d", rec.Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{400 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{59 * time.Minute, 3540},
	}
	for _, tt := range tests {
		if got := retryAfterSeconds(tt.in); got != tt.want {
			t.Errorf("retryAfterSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func readEvent(t *testing.T, reader *bufio.Reader) dashboard.Snapshot {
	t.Helper()
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && data != "":
			if event != "dashboard" {
				t.Fatalf("event = %q", event)
			}
			var snap dashboard.Snapshot
			if err := json.Unmarshal([]byte(data), &snap); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			return snap
		}
	}
}

func TestHandleStream(t *testing.T) {
	svc := newService(t)
	h := NewHandlers(svc, WithHeartbeat(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(h.HandleStream))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	reader := bufio.NewReader(resp.Body)

	first := readEvent(t, reader)
	if first.Overview.TotalRooms != 45 {
		t.Errorf("first event TotalRooms = %d", first.Overview.TotalRooms)
	}

	svc.Apply(dashboard.SetCheckInsToday(42))
	next := readEvent(t, reader)
	if next.Today.CheckIns != 42 {
		t.Errorf("update CheckIns = %d, want 42", next.Today.CheckIns)
	}

	cancel()
	deadline := time.Now().Add(3 * time.Second)
	for svc.ListenerCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream listener not removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleStream_EndsOnServerShutdown(t *testing.T) {
	svc := newService(t)
	h := NewHandlers(svc, WithHeartbeat(time.Hour))
	srv := httptest.NewUnstartedServer(http.HandlerFunc(h.HandleStream))
	srv.Config.RegisterOnShutdown(h.Shutdown)
	srv.Start()
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()
	readEvent(t, bufio.NewReader(resp.Body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := srv.Config.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown with open stream: %v after %s", err, time.Since(start))
	}
	if svc.ListenerCount() != 0 {
		t.Errorf("listeners = %d after shutdown", svc.ListenerCount())
	}
}

func TestHandleStream_AfterShutdownReturnsImmediately(t *testing.T) {
	h := NewHandlers(newService(t), WithHeartbeat(time.Hour))
	h.Shutdown()
	h.Shutdown()

	rec := httptest.NewRecorder()
	h.HandleStream(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stream", nil))
	if !strings.HasPrefix(rec.Body.String(), "event: dashboard\n") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
