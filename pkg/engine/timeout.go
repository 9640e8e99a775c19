package engine

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chazu/kerf/pkg/graph"
)

var (
	// ErrEvalTimeout is returned when user code runs past the engine's limit.
	ErrEvalTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned to a caller whose evaluation finished after a
	// newer one had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// outcome carries one sandbox run back from its goroutine.
type outcome struct {
	graph *graph.Graph
	errs  []EvalError
	err   error
}

// tickets numbers evaluations so only the most recent one reports a graph.
// zygomys cannot be interrupted mid-Run, so an abandoned sandbox keeps
// running and its outcome is dropped on arrival.
type tickets struct {
	mu   sync.Mutex
	last uint64
}

func (t *tickets) issue() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last++
	return t.last
}

func (t *tickets) current(n uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return n == t.last
}

// await blocks until ticket n's outcome arrives on ch or limit elapses.
func (t *tickets) await(n uint64, ch <-chan outcome, limit time.Duration) (*graph.Graph, []EvalError, error) {
	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case out := <-ch:
		if !t.current(n) {
			return nil, nil, errors.WithStack(ErrSuperseded)
		}
		return out.graph, out.errs, out.err
	case <-timer.C:
		return nil, nil, errors.WithMessagef(ErrEvalTimeout, "limit %s", limit)
	}
}
