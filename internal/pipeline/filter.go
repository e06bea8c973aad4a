package pipeline

import (
	"context"
	"rewatch/internal/model"
)

func Filter(ctx context.Context, inCh <-chan model.FileEvent, spec *Spec) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		for event := range inCh {
			if !spec.Match(event.Path) {
				continue
			}

			select {
			case outCh <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return outCh
}
