package pipeline

import (
	"context"
	"rewatch/internal/model"
	"time"
)

// Debounce coalesces bursts of events into triggers. Every event restarts
// the window; a trigger is emitted only once the window passes without a
// new event. A zero delay turns every event into its own trigger.
func Debounce(ctx context.Context, inCh <-chan model.FileEvent, delay time.Duration) <-chan model.Trigger {
	outCh := make(chan model.Trigger)

	go func() {
		defer close(outCh)

		var (
			timer   *time.Timer
			timerCh <-chan time.Time
			pending batch
		)

		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		emit := func() bool {
			select {
			case outCh <- pending.flush():
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-inCh:
				if !ok {
					if pending.events > 0 {
						emit()
					}
					return
				}

				pending.add(event)

				if delay <= 0 {
					if !emit() {
						return
					}
					continue
				}

				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					timer.Reset(delay)
				}
				timerCh = timer.C

			case <-timerCh:
				timerCh = nil
				if !emit() {
					return
				}
			}
		}
	}()

	return outCh
}

type batch struct {
	paths  []string
	seen   map[string]struct{}
	events int
}

func (b *batch) add(event model.FileEvent) {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}

	b.events++
	if _, ok := b.seen[event.Path]; ok {
		return
	}

	b.seen[event.Path] = struct{}{}
	b.paths = append(b.paths, event.Path)
}

func (b *batch) flush() model.Trigger {
	trigger := model.Trigger{
		Paths:   b.paths,
		Events:  b.events,
		FiredAt: time.Now(),
	}
	*b = batch{}
	return trigger
}
