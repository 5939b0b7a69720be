package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("analyzer: pool closed")

// Factory builds one analyzer.
type Factory func() (Analyzer, error)

// Pool hands out analyzers to concurrent callers. An analyzer is used by one
// caller at a time between Acquire and Release.
type Pool struct {
	analyzers chan Analyzer
	size      int
	mu        sync.Mutex
	closed    bool
}

// NewPool pre-builds size analyzers.
func NewPool(size int, factory Factory) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	pool := &Pool{
		analyzers: make(chan Analyzer, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		a, err := factory()
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("creating analyzer %d: %w", i, err)
		}
		pool.analyzers <- a
	}

	return pool, nil
}

// Acquire takes an analyzer, blocking until one is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Analyzer, error) {
	select {
	case a, ok := <-p.analyzers:
		if !ok {
			return nil, ErrPoolClosed
		}
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an analyzer to the pool. Releasing into a closed or full
// pool drops the analyzer.
func (p *Pool) Release(a Analyzer) {
	if a == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	select {
	case p.analyzers <- a:
	default:
	}
}

// Close drains the pool. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.analyzers)
	for range p.analyzers {
	}
	return nil
}

// Size returns the pool size.
func (p *Pool) Size() int {
	return p.size
}
