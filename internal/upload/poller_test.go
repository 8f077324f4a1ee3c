package upload

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriahq/memoria-go/internal/api"
)

// statusServer serves item details whose status flips to a final value
// after settleAfter polls of that item.
type statusServer struct {
	*httptest.Server

	mu          sync.Mutex
	polls       map[string]int
	settleAfter map[string]int
	finalStatus map[string]string
}

func newStatusServer(t *testing.T) *statusServer {
	t.Helper()
	ss := &statusServer{
		polls:       map[string]int{},
		settleAfter: map[string]int{},
		finalStatus: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /timeline/items/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/timeline/items/")
		ss.mu.Lock()
		ss.polls[id]++
		status := api.StatusProcessing
		if after, ok := ss.settleAfter[id]; ok && ss.polls[id] > after {
			status = ss.finalStatus[id]
		}
		ss.mu.Unlock()

		json.NewEncoder(w).Encode(api.TimelineItemDetail{
			TimelineItem: api.TimelineItem{ID: id},
			Status:       status,
		})
	})

	ss.Server = httptest.NewServer(mux)
	t.Cleanup(ss.Close)
	return ss
}

func (s *statusServer) settle(id, status string, afterPolls int) {
	s.mu.Lock()
	s.settleAfter[id] = afterPolls
	s.finalStatus[id] = status
	s.mu.Unlock()
}

func newFastPoller(srv *statusServer) *Poller {
	p := NewPoller(api.New(srv.URL), nil, nil)
	p.InitialInterval = time.Millisecond
	p.MaxInterval = 2 * time.Millisecond
	p.MaxElapsed = time.Second
	p.MaxAttempts = 5
	return p
}

func TestPollerWaitSettlesAll(t *testing.T) {
	srv := newStatusServer(t)
	srv.settle("a", api.StatusCompleted, 0)
	srv.settle("b", api.StatusFailed, 2)

	statuses, err := newFastPoller(srv).Wait(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byID := map[string]string{}
	for _, s := range statuses {
		byID[s.ItemID] = s.Status
	}
	assert.Equal(t, api.StatusCompleted, byID["a"])
	assert.Equal(t, api.StatusFailed, byID["b"])
}

func TestPollerBudgetExhausted(t *testing.T) {
	srv := newStatusServer(t)
	srv.settle("done", api.StatusCompleted, 0)
	// "stuck" never settles.

	statuses, err := newFastPoller(srv).Wait(context.Background(), []string{"done", "stuck"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStillProcessing))
	assert.Contains(t, err.Error(), "stuck")

	require.Len(t, statuses, 1, "settled items are reported even on exhaustion")
	assert.Equal(t, "done", statuses[0].ItemID)

	srv.mu.Lock()
	polls := srv.polls["stuck"]
	srv.mu.Unlock()
	assert.Equal(t, 5, polls, "one poll per attempt")
}

func TestPollerNoPendingItems(t *testing.T) {
	srv := newStatusServer(t)
	statuses, err := newFastPoller(srv).Wait(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestPollerBackOffSchedule(t *testing.T) {
	p := NewPoller(api.New("http://localhost:1"), nil, nil)
	bo := p.newBackOff()

	assert.Equal(t, DefaultInitialInterval, bo.InitialInterval)
	assert.Equal(t, 2.0, bo.Multiplier, "intervals double between polls")
	assert.Equal(t, DefaultMaxInterval, bo.MaxInterval)
	assert.Equal(t, DefaultMaxElapsed, bo.MaxElapsedTime)
}

func TestPollerContextCancel(t *testing.T) {
	srv := newStatusServer(t)
	// Never settles; cancel mid-wait instead.
	p := NewPoller(api.New(srv.URL), nil, nil)
	p.InitialInterval = 50 * time.Millisecond
	p.MaxAttempts = 100

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Wait(ctx, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
