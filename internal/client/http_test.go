package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/trellis/internal/auth"
	"github.com/alfredjeanlab/trellis/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method      string
	path        string
	body        string
	contentType string
	authz       string
	csrfHeader  string
	csrfCookie  string
	userAgent   string

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.contentType = r.Header.Get("Content-Type")
	h.authz = r.Header.Get("Authorization")
	h.userAgent = r.UserAgent()
	h.csrfHeader = r.Header.Get(auth.CSRFHeaderName)
	if c, err := r.Cookie(auth.CSRFCookieName); err == nil {
		h.csrfCookie = c.Value
	}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", StaticSession("tok-1"))
}

func sampleConfig() model.Config {
	return model.Config{
		Secrets: model.Secrets{OWMAPIKey: model.String("k")},
		Tiles: []model.Tile{
			{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Row: model.Uint32(1), Data: model.Weather{LocationID: "1234567"}},
		},
	}
}

func TestHTTPClient_Load(t *testing.T) {
	want := sampleConfig()
	body, _ := model.Serialize(want)
	h := &testHandler{responseBody: string(body)}
	c := newTestClient(t, h)

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if h.method != http.MethodGet || h.path != "/load" {
		t.Errorf("request = %s %s, want GET /load", h.method, h.path)
	}
	if h.authz != "Bearer tok-1" {
		t.Errorf("Authorization = %q", h.authz)
	}
	if h.csrfHeader != "" {
		t.Errorf("GET should not carry a CSRF header, got %q", h.csrfHeader)
	}
}

func TestHTTPClient_LoadDefault(t *testing.T) {
	c := newTestClient(t, &testHandler{responseBody: `{"secrets":{},"tiles":[]}`})
	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, model.Default()) {
		t.Errorf("Load = %+v, want default", got)
	}
}

func TestHTTPClient_Save(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c := newTestClient(t, h)
	cfg := sampleConfig()

	if err := c.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if h.method != http.MethodPost || h.path != "/save" {
		t.Errorf("request = %s %s, want POST /save", h.method, h.path)
	}
	want, _ := model.Serialize(cfg)
	if h.body != string(want) {
		t.Errorf("body = %s, want %s", h.body, want)
	}
	if h.contentType != "application/json" {
		t.Errorf("Content-Type = %q", h.contentType)
	}
	if h.csrfHeader == "" || h.csrfHeader != h.csrfCookie {
		t.Errorf("CSRF header %q and cookie %q should match and be non-empty", h.csrfHeader, h.csrfCookie)
	}
}

func TestHTTPClient_NoSessionSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, StaticSession(""))
	if _, err := c.Load(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Load error = %v, want ErrNotAuthenticated", err)
	}
	if err := c.Save(context.Background(), model.Default()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Save error = %v, want ErrNotAuthenticated", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server saw %d requests, want 0", calls.Load())
	}
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		name       string
		status     int
		body       string
		wantAuth   bool
		wantStatus int
		wantMsg    string
	}{
		{"Unauthorized", http.StatusUnauthorized, `{"error":"no session"}`, true, 0, ""},
		{"ServerError", http.StatusInternalServerError, `{"error":"db down"}`, false, 500, "db down"},
		{"PlainBody", http.StatusBadGateway, `upstream`, false, 502, "upstream"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tc.status, responseBody: tc.body})
			_, err := c.Load(context.Background())
			if IsAuthError(err) != tc.wantAuth {
				t.Fatalf("IsAuthError(%v) = %v, want %v", err, !tc.wantAuth, tc.wantAuth)
			}
			if tc.wantAuth {
				return
			}
			var ne *NetworkError
			if !errors.As(err, &ne) {
				t.Fatalf("error %v is not a *NetworkError", err)
			}
			if ne.StatusCode != tc.wantStatus {
				t.Errorf("StatusCode = %d, want %d", ne.StatusCode, tc.wantStatus)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Message != tc.wantMsg {
				t.Errorf("APIError = %+v, want message %q", apiErr, tc.wantMsg)
			}
		})
	}
}

func TestHTTPClient_UndecodableResponse(t *testing.T) {
	c := newTestClient(t, &testHandler{responseBody: `{"tiles":`})
	_, err := c.Load(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	var pe *model.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error should wrap the parse error, got %v", err)
	}
}

func TestHTTPClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, StaticSession("tok"))
	err := c.Save(context.Background(), model.Default())
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if ne.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failure", ne.StatusCode)
	}
}

func TestHTTPClient_Health(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()
	c := NewHTTPClient(srv.URL, nil)
	got, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if got != "ok" || h.path != "/health" {
		t.Errorf("Health = %q via %s", got, h.path)
	}
}

func TestHTTPClient_Devices(t *testing.T) {
	h := &testHandler{responseBody: `{"devices":[{"session_id":"ses-1","client":"trellis-cli","last_op":"save","loads":2,"saves":1}]}`}
	c := newTestClient(t, h)

	got, err := c.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if h.method != http.MethodGet || h.path != "/devices" {
		t.Errorf("request = %s %s", h.method, h.path)
	}
	if h.userAgent != UserAgent {
		t.Errorf("User-Agent = %q, want %q", h.userAgent, UserAgent)
	}
	if len(got) != 1 || got[0].SessionID != "ses-1" || got[0].Loads != 2 || got[0].Saves != 1 {
		t.Errorf("Devices = %+v", got)
	}
}

func TestHTTPClient_CallerCancellation(t *testing.T) {
	stall := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	c := newTestClient(t, stall)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	defer cancel()
	_, err := c.Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Load error = %v, want context.Canceled", err)
	}
	if IsNetworkError(err) {
		t.Errorf("caller cancellation reported as a network error: %v", err)
	}
}

type failingSource struct{}

func (failingSource) CurrentSession(context.Context) (Session, error) {
	return Session{}, errors.New("keyring locked")
}

func TestCurrentSession_FoldsErrors(t *testing.T) {
	for _, src := range []SessionSource{nil, failingSource{}, StaticSession("  ")} {
		if _, err := currentSession(context.Background(), src); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("currentSession(%T) = %v, want ErrNotAuthenticated", src, err)
		}
	}
}
