package hotelapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(zerolog.Nop()), WithToken("service-token")}, opts...)
	c, err := New(srv.URL, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresAbsoluteURL(t *testing.T) {
	for _, raw := range []string{"", "/api", "localhost"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) succeeded, want error", raw)
		}
	}
	if _, err := New("http://localhost:5000/"); err != nil {
		t.Errorf("New absolute: %v", err)
	}
}

func TestGet_SendsTokenAndDecodesData(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("available")
		_, _ = io.WriteString(w, `{"success":true,"data":{"rooms":[{"number":"101"}]}}`)
	})

	var out struct {
		Rooms []struct {
			Number string `json:"number"`
		} `json:"rooms"`
	}
	if err := c.Get(context.Background(), "/api/rooms", url.Values{"available": {"true"}}, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer service-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/api/rooms" || gotQuery != "true" {
		t.Errorf("path=%q available=%q", gotPath, gotQuery)
	}
	if len(out.Rooms) != 1 || out.Rooms[0].Number != "101" {
		t.Errorf("decoded %+v", out)
	}
}

func TestGet_ContextTokenWins(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	ctx := ContextWithToken(context.Background(), "user-token")
	if err := c.Get(ctx, "/ping", nil, nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotAuth != "Bearer user-token" {
		t.Errorf("Authorization = %q, want user token", gotAuth)
	}
}

func TestGet_NoTokenSendsNothing(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, WithToken(""))

	err := c.Get(context.Background(), "/api/hotels/dashboard", nil, nil)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
	if called {
		t.Error("request sent without a token")
	}
}

func TestGet_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantStatus  int
		wantMessage string
		rejected    bool
	}{
		{
			name:        "non-2xx with envelope",
			status:      http.StatusUnauthorized,
			body:        `{"success":false,"error":"token expired"}`,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "token expired",
		},
		{
			name:        "non-2xx with plain body",
			status:      http.StatusBadGateway,
			body:        "upstream down",
			wantStatus:  http.StatusBadGateway,
			wantMessage: "upstream down",
		},
		{
			name:        "success false",
			status:      http.StatusOK,
			body:        `{"success":false,"message":"room taken"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "room taken",
			rejected:    true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    "<html>",
			wantErr: ErrMalformed,
		},
		{
			name:    "missing data",
			status:  http.StatusOK,
			body:    `{"success":true}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "null data",
			status:  http.StatusOK,
			body:    `{"success":true,"data":null}`,
			wantErr: ErrMalformed,
		},
		{
			name:    "data of wrong shape",
			status:  http.StatusOK,
			body:    `{"success":true,"data":[1,2]}`,
			wantErr: ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			var out struct {
				Total int `json:"total"`
			}
			err := c.Get(context.Background(), "/x", nil, &out)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus || apiErr.Message != tt.wantMessage {
				t.Errorf("APIError = %+v", apiErr)
			}
			if apiErr.Rejected() != tt.rejected {
				t.Errorf("Rejected = %v, want %v", apiErr.Rejected(), tt.rejected)
			}
		})
	}
}

func TestGet_TimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, WithTimeout(20*time.Millisecond))
	defer close(release)

	err := c.Get(context.Background(), "/slow", nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGet_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, WithToken("t"), WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Get(context.Background(), "/x", nil, nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestPost_EncodesBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"success":true,"data":{"_id":"r1"}}`)
	})

	var out struct {
		ID string `json:"_id"`
	}
	if err := c.Post(context.Background(), "/api/reservations", map[string]any{"roomId": "101"}, &out); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got["roomId"] != "101" {
		t.Errorf("server received %v", got)
	}
	if out.ID != "r1" {
		t.Errorf("ID = %q", out.ID)
	}
}
