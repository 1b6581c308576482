package analytics

import (
	"compress/gzip"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwa051/Gluu-PostHog-test/internal/config"
	"github.com/fwa051/Gluu-PostHog-test/internal/core"
)

type fakeEnqueuer struct {
	messages   []posthog.Message
	closes     int
	enqueueErr error
	closeErr   error
}

func (f *fakeEnqueuer) Enqueue(m posthog.Message) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeEnqueuer) Close() error {
	f.closes++
	return f.closeErr
}

func newTestClient(f *fakeEnqueuer) *Client {
	return &Client{ph: f, tracker: &tracker{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}}
}

func TestToCapture(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := core.Event{
		Event:      "upload_success",
		DistinctID: "u-1000",
		Timestamp:  pgtype.Timestamptz{Time: ts, Valid: true},
		Properties: core.Properties{"uploads": "3", "quota": "10"},
	}

	c := toCapture(ev)

	assert.Equal(t, "u-1000", c.DistinctId)
	assert.Equal(t, "upload_success", c.Event)
	assert.True(t, c.Timestamp.Equal(ts))
	assert.Equal(t, posthog.Properties{"uploads": "3", "quota": "10"}, c.Properties)
}

func TestToCapture_AbsentTimestampIsZero(t *testing.T) {
	c := toCapture(core.Event{Event: "logout", DistinctID: "u-1"})
	assert.True(t, c.Timestamp.IsZero())
	assert.Empty(t, c.Properties)
}

func TestClient_Capture(t *testing.T) {
	f := &fakeEnqueuer{}
	c := newTestClient(f)

	require.NoError(t, c.Capture(core.Event{Event: "login", DistinctID: "u-1"}))
	require.Len(t, f.messages, 1)

	msg, ok := f.messages[0].(posthog.Capture)
	require.True(t, ok)
	assert.Equal(t, "login", msg.Event)
}

func TestClient_CaptureError(t *testing.T) {
	c := newTestClient(&fakeEnqueuer{enqueueErr: errors.New("closed")})
	assert.EqualError(t, c.Capture(core.Event{Event: "login", DistinctID: "u-1"}), "closed")
}

func TestClient_FlushClosesOnce(t *testing.T) {
	f := &fakeEnqueuer{closeErr: errors.New("drain timeout")}
	c := newTestClient(f)

	assert.EqualError(t, c.Flush(), "drain timeout")
	assert.EqualError(t, c.Flush(), "drain timeout")
	assert.Equal(t, 1, f.closes)
}

func TestTracker(t *testing.T) {
	c := newTestClient(&fakeEnqueuer{})

	c.tracker.Success(nil)
	c.tracker.Success(nil)
	c.tracker.Failure(nil, errors.New("503"))

	assert.Equal(t, Stats{Delivered: 2, Failed: 1}, c.Stats())
}

func TestClient_DeliversToEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an HTTP server and a PostHog sender")
	}

	var (
		mu     sync.Mutex
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(r.Body)
			if err == nil {
				body = zr
			}
		}
		b, _ := io.ReadAll(body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer srv.Close()

	c, err := New(config.PostHogConfig{
		APIKey:        "phc_test",
		Host:          srv.URL,
		BatchSize:     10,
		FlushInterval: time.Hour,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, c.Capture(core.Event{
		Event:      "debug_test_event",
		DistinctID: "debug_user_001",
		Properties: core.Properties{"source": "test"},
	}))
	require.NoError(t, c.Flush())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, bodies)
	joined := strings.Join(bodies, "\n")
	assert.Contains(t, joined, "debug_test_event")
	assert.Contains(t, joined, "debug_user_001")
	assert.Equal(t, Stats{Delivered: 1}, c.Stats())
}
