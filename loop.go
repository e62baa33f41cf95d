package dbots

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultPostInterval is the fan-out interval used when StartLoop receives a
// non-positive one.
const DefaultPostInterval = 30 * time.Minute

// autoLoop is the recurring fan-out. At most one exists per Poster.
type autoLoop struct {
	c      *cron.Cron
	cancel context.CancelFunc
}

// StartLoop begins posting to all configured services every interval,
// replacing any loop already running. The first fan-out happens one interval
// after the call, and a fan-out still in flight suppresses the next tick
// rather than overlapping it. Outcomes are announced on "auto_post" /
// "auto_post_fail"; nothing is returned to the caller per tick. Cancelling
// ctx stops the loop the same way KillLoop does.
func (p *Poster) StartLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPostInterval
	}

	p.loopMu.Lock()
	defer p.loopMu.Unlock()
	p.killLoopLocked()

	lctx, cancel := context.WithCancel(ctx)
	clog := cronLogger{log: p.log}
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.SkipIfStillRunning(clog)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { p.autoPost(lctx) }); err != nil {
		cancel()
		return err
	}
	c.Start()
	p.loop = &autoLoop{c: c, cancel: cancel}
	p.log.Debug().Dur("interval", interval).Msg("posting loop started")
	return nil
}

// KillLoop cancels the active posting loop, if any. Idempotent. An in-flight
// fan-out stops at its next suspension point, not necessarily immediately.
func (p *Poster) KillLoop() {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()
	p.killLoopLocked()
}

func (p *Poster) killLoopLocked() {
	if p.loop == nil {
		return
	}
	p.loop.cancel()
	<-p.loop.c.Stop().Done()
	p.loop = nil
	p.log.Debug().Msg("posting loop stopped")
}

// autoPost runs one timed fan-out.
func (p *Poster) autoPost(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	results, err := p.Post(ctx, "")
	if err != nil {
		p.log.Debug().Err(err).Msg("auto post failed")
		p.events.Dispatch(ctx, EventAutoPostFail, err)
		return
	}
	p.log.Debug().Int("services", len(results)).Msg("auto posted")
	p.events.Dispatch(ctx, EventAutoPost, results)
}

// cronLogger adapts zerolog to cron's logging interface. Cron chatter goes
// to debug; only job errors are worth the error level.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
