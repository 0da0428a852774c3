package client

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/mmmorris1975/rcon-session-client/rcon"
	"go.uber.org/zap"
)

// Lifecycle owns the one shutdown path every exit takes: it closes the
// session socket exactly once and resets terminal attributes, whether the
// program returns normally, fails, or is interrupted by a signal.
type Lifecycle struct {
	session *rcon.Session
	palette *Palette
	stdout  io.Writer
	log     *zap.SugaredLogger

	once        sync.Once
	sigCh       chan os.Signal
	interrupted atomic.Bool
}

func NewLifecycle(s *rcon.Session, p *Palette, stdout io.Writer, log *zap.SugaredLogger) *Lifecycle {
	return &Lifecycle{session: s, palette: p, stdout: stdout, log: log}
}

// Install registers the signal handlers. On SIGINT/SIGTERM (and SIGABRT
// where the platform has it) the session is marked interrupted and its
// socket closed, which unwinds any blocking engine operation back to the
// caller; the caller then runs Shutdown on its way out.
func (l *Lifecycle) Install() {
	l.sigCh = make(chan os.Signal, 1)
	notifySignals(l.sigCh)

	go func() {
		sig, ok := <-l.sigCh
		if !ok {
			return
		}
		l.log.Debugw("signal received", "signal", sig)
		l.interrupted.Store(true)
		l.session.Interrupt()
	}()
}

// Interrupted reports whether a shutdown signal was delivered.
func (l *Lifecycle) Interrupted() bool {
	return l.interrupted.Load()
}

// Shutdown is the idempotent cleanup hook: safe to call any number of times,
// from any exit path, even before the session ever connected.
func (l *Lifecycle) Shutdown() {
	l.once.Do(func() {
		if l.sigCh != nil {
			signal.Stop(l.sigCh)
			close(l.sigCh)
		}
		if err := l.session.Close(); err != nil {
			l.log.Debugw("socket close", "error", err)
		}
		if reset := l.palette.Reset(); reset != "" {
			fmt.Fprint(l.stdout, reset)
		}
	})
}
