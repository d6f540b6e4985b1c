package poller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer replays a fixed sequence of status responses and keeps
// serving the last one once the script runs out.
type scriptedServer struct {
	mu        sync.Mutex
	responses []string
	index     int
	requests  int
}

func (s *scriptedServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	body := s.responses[s.index]
	if s.index < len(s.responses)-1 {
		s.index++
	}

	if body == "" {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func statusJSON(number, position int, status string) string {
	return fmt.Sprintf(`{
		"queue_number": %d,
		"position": %d,
		"estimated_wait": %d,
		"status": %q,
		"items": [{"dish_id": 1, "name": "Chicken satay", "quantity": 2, "price": 4.50}],
		"total_amount": 9.00
	}`, number, position, position*5, status)
}

func TestRun_CallbacksAndTerminalStop(t *testing.T) {
	script := &scriptedServer{responses: []string{
		statusJSON(3, 3, "waiting"),
		statusJSON(3, 2, "waiting"),
		statusJSON(3, 1, "ready"),
		statusJSON(3, 1, "completed"),
	}}
	srv := httptest.NewServer(http.HandlerFunc(script.handler))
	defer srv.Close()

	var mu sync.Mutex
	var updates []TicketStatus
	var moves [][2]int
	readyCount := 0

	p := New(Config{
		BaseURL:         srv.URL,
		VendorID:        1,
		QueueNumber:     3,
		InitialPosition: 3,
		Interval:        5 * time.Millisecond,
		OnUpdate: func(s TicketStatus) {
			mu.Lock()
			updates = append(updates, s)
			mu.Unlock()
		},
		OnMovedUp: func(oldPos, newPos int) {
			mu.Lock()
			moves = append(moves, [2]int{oldPos, newPos})
			mu.Unlock()
		},
		OnReady: func(s TicketStatus) {
			mu.Lock()
			readyCount++
			mu.Unlock()
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Run(ctx)

	require.NoError(t, ctx.Err(), "polling must stop on the completed status, not the deadline")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 4)
	assert.Equal(t, "waiting", updates[0].Status)
	assert.Equal(t, "completed", updates[3].Status)
	assert.Equal(t, [][2]int{{3, 2}, {2, 1}}, moves)
	assert.Equal(t, 1, readyCount, "ready fires once even though later polls stay ready")
}

func TestRun_RetriesAfterServerError(t *testing.T) {
	script := &scriptedServer{responses: []string{
		"", // 500 on the first poll
		statusJSON(1, 1, "completed"),
	}}
	srv := httptest.NewServer(http.HandlerFunc(script.handler))
	defer srv.Close()

	updates := 0
	p := New(Config{
		BaseURL:     srv.URL,
		VendorID:    1,
		QueueNumber: 1,
		Interval:    5 * time.Millisecond,
		OnUpdate:    func(TicketStatus) { updates++ },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p.Run(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, 1, updates, "the failed poll is retried, not dispatched")

	script.mu.Lock()
	defer script.mu.Unlock()
	assert.GreaterOrEqual(t, script.requests, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	script := &scriptedServer{responses: []string{
		statusJSON(1, 1, "waiting"),
	}}
	srv := httptest.NewServer(http.HandlerFunc(script.handler))
	defer srv.Close()

	p := New(Config{
		BaseURL:     srv.URL,
		VendorID:    1,
		QueueNumber: 1,
		Interval:    5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{BaseURL: "http://localhost:8080", VendorID: 1, QueueNumber: 1})

	assert.Equal(t, DefaultInterval, p.cfg.Interval)
	require.NotNil(t, p.cfg.Client)
	assert.Equal(t, 10*time.Second, p.cfg.Client.Timeout)
}
