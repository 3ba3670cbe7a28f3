package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolling(t *testing.T) {
	t.Helper()

	prev := pollInterval
	pollInterval = 20 * time.Millisecond
	t.Cleanup(func() { pollInterval = prev })
}

func TestStopDaemon_WaitsForShutdown(t *testing.T) {
	fastPolling(t)

	stopped := make(chan struct{})
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/stop":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"stopping"}`))
			go func() {
				time.Sleep(50 * time.Millisecond)
				_ = srv.Listener.Close()
				srv.CloseClientConnections()
				close(stopped)
			}()
		case "/status":
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	require.NoError(t, stopDaemon(srv.URL, 5*time.Second))

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("daemon shutdown never ran")
	}
}

func TestStopDaemon_NoWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"stopping"}`))
	}))
	defer srv.Close()

	assert.NoError(t, stopDaemon(srv.URL, 0))
}

func TestStopDaemon_Errors(t *testing.T) {
	fastPolling(t)

	tests := []struct {
		name string
		code int
		body string
		wait time.Duration
		want string
	}{
		{name: "server_error", code: http.StatusInternalServerError, body: `{"error":"boom"}`, want: "boom"},
		{name: "not_found", code: http.StatusNotFound, body: ``, want: "404"},
		{name: "unexpected_body", code: http.StatusOK, body: `{"status":"busy"}`, want: "busy"},
		{name: "never_stops", code: http.StatusOK, body: `{"status":"stopping"}`, wait: 100 * time.Millisecond, want: "still running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/status" {
					_, _ = w.Write([]byte(`{}`))
					return
				}
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := stopDaemon(srv.URL, tt.wait)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStopDaemon_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := stopDaemon(url, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon not running")
}
