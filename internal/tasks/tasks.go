// Package tasks runs detached background work for webhook handlers.
//
// A handler calls Spawn and returns to its caller at once. The process that
// owns the Group must call Wait before exiting so in-flight tasks can settle;
// tasks still running when Wait gives up are abandoned.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/slack-gpt-relay/internal/logger"
)

type Func func(ctx context.Context) error

type Spawner interface {
	Spawn(name string, fn Func)
}

// Logged is implemented by errors whose producer has already written them to
// the log. Spawn records those at debug level only.
type Logged interface {
	Logged() bool
}

func alreadyLogged(err error) bool {
	var l Logged
	return errors.As(err, &l) && l.Logged()
}

type Group struct {
	wg       sync.WaitGroup
	inFlight prometheus.Gauge
}

// NewGroup returns a Group. inFlight may be nil.
func NewGroup(inFlight prometheus.Gauge) *Group {
	return &Group{inFlight: inFlight}
}

// Spawn starts fn in its own goroutine with a context that is not tied to
// any request. Errors and panics are logged once; nothing is reported back.
func (g *Group) Spawn(name string, fn Func) {
	g.wg.Add(1)
	if g.inFlight != nil {
		g.inFlight.Inc()
	}

	go func() {
		defer g.wg.Done()
		if g.inFlight != nil {
			defer g.inFlight.Dec()
		}

		start := time.Now()
		err := run(fn)
		if err != nil && alreadyLogged(err) {
			logger.Debug().Err(err).Str("task", name).Dur("elapsed", time.Since(start)).Msg("Background task failed")
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("task", name).Dur("elapsed", time.Since(start)).Msg("Background task failed")
			return
		}
		logger.Debug().Str("task", name).Dur("elapsed", time.Since(start)).Msg("Background task finished")
	}()
}

func run(fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(context.Background())
}

// Wait blocks until every spawned task has settled or ctx is done.
func (g *Group) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}

// Inline runs tasks synchronously on the caller's goroutine and keeps the
// last error.
type Inline struct {
	Err error
}

func (i *Inline) Spawn(name string, fn Func) {
	i.Err = run(fn)
	if i.Err != nil {
		i.Err = fmt.Errorf("%s: %w", name, i.Err)
	}
}
