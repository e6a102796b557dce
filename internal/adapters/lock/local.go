// Package lock provides per-conversation mutual exclusion.
package lock

import (
	"context"
	"sync"

	"github.com/PabloGalante/trina/internal/domain"
)

// Local serializes work per conversation inside a single process.
// Idle keys are dropped once their last holder or waiter releases.
type Local struct {
	mu    sync.Mutex
	locks map[domain.ConversationID]*entry
}

type entry struct {
	ch   chan struct{} // buffered(1): holding the token means holding the lock
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[domain.ConversationID]*entry)}
}

func (l *Local) Lock(ctx context.Context, id domain.ConversationID) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(id, e)
		})
	}, nil
}

func (l *Local) unref(id domain.ConversationID, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
}

// size reports the number of tracked keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
