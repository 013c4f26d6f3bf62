package relay

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fashfolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellRelay(t *testing.T, script string, timeout time.Duration) *Relay {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o600))
	transport := &ProcessTransport{
		Command:    "sh",
		ScriptsDir: dir,
		Scripts:    map[Target]string{TargetTrend: "run.sh"},
	}
	return New(transport, Options{Timeout: timeout, MaxConcurrency: 2})
}

func relayKind(t *testing.T, err error) Kind {
	t.Helper()
	var relayErr *Error
	require.True(t, errors.As(err, &relayErr), "expected relay error, got %v", err)
	return relayErr.Kind
}

func TestProcessRelay_EchoesPayload(t *testing.T) {
	r := shellRelay(t, "cat\n", 5*time.Second)

	var out []map[string]interface{}
	err := r.Invoke(context.Background(), TargetTrend, []models.ProductSnapshot{{ID: "p1", Title: "Coat"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p1", out[0]["id"])
}

func TestProcessRelay_Failures(t *testing.T) {
	tests := []struct {
		name       string
		script     string
		timeout    time.Duration
		kind       Kind
		status     int
		message    string
		diagnostic string
	}{
		{
			name:       "non-zero exit keeps stderr",
			script:     "echo 'Traceback: boom' >&2\nexit 3\n",
			timeout:    5 * time.Second,
			kind:       KindExit,
			status:     http.StatusBadGateway,
			message:    "AI Processing Failed",
			diagnostic: "Traceback: boom",
		},
		{
			name:    "malformed output",
			script:  "echo 'not json'\n",
			timeout: 5 * time.Second,
			kind:    KindParse,
			status:  http.StatusBadGateway,
			message: "AI Parsing Failed",
		},
		{
			name:    "empty output",
			script:  "true\n",
			timeout: 5 * time.Second,
			kind:    KindParse,
			status:  http.StatusBadGateway,
			message: "AI Parsing Failed",
		},
		{
			name:    "deadline",
			script:  "exec sleep 5\n",
			timeout: 100 * time.Millisecond,
			kind:    KindTimeout,
			status:  http.StatusGatewayTimeout,
			message: "AI Processing Failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := shellRelay(t, tt.script, tt.timeout)

			var out interface{}
			err := r.Invoke(context.Background(), TargetTrend, []string{}, &out)
			require.Error(t, err)
			assert.Equal(t, tt.kind, relayKind(t, err))

			appErr := AsAppError(err)
			assert.Equal(t, tt.status, models.StatusFor(appErr))
			var typed *models.AppError
			require.True(t, errors.As(appErr, &typed))
			assert.Equal(t, tt.message, typed.Message)
			if tt.diagnostic != "" {
				assert.Contains(t, typed.Details, tt.diagnostic)
			}
		})
	}
}

func TestProcessRelay_LaunchFailureCarriesDiagnostic(t *testing.T) {
	r := New(NewProcessTransport("fashfolio-missing-interpreter", t.TempDir()), Options{})

	err := r.Invoke(context.Background(), TargetSeyna, Seyna{Goal: "launch"}, &SeynaReport{})
	require.Error(t, err)
	assert.Equal(t, KindLaunch, relayKind(t, err))

	appErr := AsAppError(err)
	status := models.StatusFor(appErr)
	assert.True(t, status < 200 || status > 299)
	var typed *models.AppError
	require.True(t, errors.As(appErr, &typed))
	assert.NotEmpty(t, typed.Details)
}

func TestProcessRelay_CanceledContext(t *testing.T) {
	r := shellRelay(t, "exec sleep 5\n", 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := r.Invoke(ctx, TargetTrend, []string{}, nil)
	require.Error(t, err)
	assert.Equal(t, KindCanceled, relayKind(t, err))
}

func TestProcessRelay_UnknownTarget(t *testing.T) {
	r := shellRelay(t, "cat\n", time.Second)
	err := r.Invoke(context.Background(), TargetPixel, Pixel{}, nil)
	assert.Equal(t, KindLaunch, relayKind(t, err))
}

func TestHTTPRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		switch r.URL.Path {
		case "/api/agent/chat":
			_, _ = w.Write([]byte(`{"response":"Pair it with loafers"}`))
		case "/api/seyna/command":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	r := New(NewHTTPTransport(srv.URL), Options{Timeout: 5 * time.Second})

	var reply AgentReply
	require.NoError(t, r.Invoke(context.Background(), TargetAgent, Agent{Query: "hi", Context: CreativeMode}, &reply))
	assert.Equal(t, "Pair it with loafers", reply.Response)

	err := r.Invoke(context.Background(), TargetSeyna, Seyna{Goal: "grow"}, &SeynaReport{})
	require.Error(t, err)
	var relayErr *Error
	require.True(t, errors.As(err, &relayErr))
	assert.Equal(t, KindStatus, relayErr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, relayErr.StatusCode)
	assert.Len(t, relayErr.Diagnostic, MaxDiagnosticBytes)
}

func TestHTTPRelay_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	r := New(NewHTTPTransport(srv.URL), Options{Timeout: 50 * time.Millisecond})
	err := r.Invoke(context.Background(), TargetScoring, []models.UserSnapshot{}, nil)
	assert.Equal(t, KindTimeout, relayKind(t, err))
	assert.Equal(t, http.StatusGatewayTimeout, models.StatusFor(AsAppError(err)))
}

type countingTransport struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingTransport) Name() string { return "counting" }

func (c *countingTransport) Do(ctx context.Context, _ Target, _ []byte) ([]byte, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if n <= peak || c.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return []byte(`{}`), nil
}

func TestRelay_BoundsConcurrency(t *testing.T) {
	transport := &countingTransport{}
	r := New(transport, Options{Timeout: 5 * time.Second, MaxConcurrency: 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Invoke(context.Background(), TargetAgent, Agent{}, &AgentReply{}))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, transport.peak.Load(), int32(2))
	assert.Equal(t, int32(0), transport.inFlight.Load())
}
