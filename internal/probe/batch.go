package probe

import (
	"context"
	"sync"
)

// BatchHandler receives the outcome of each probe in a batch. Calls are serialized.
type BatchHandler func(target string, result Result, err error)

// RunBatch probes every target, at most `concurrency` at a time. With a concurrency of 1
// the targets are probed in order.
func RunBatch(ctx context.Context, prober *Prober, targets []string, concurrency int, handle BatchHandler) {
	if concurrency < 1 {
		concurrency = 1
	}

	handlerLock := sync.Mutex{}
	wg := sync.WaitGroup{}
	slots := make(chan struct{}, concurrency)

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		slots <- struct{}{}

		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			defer func() { <-slots }()

			result, err := prober.Probe(ctx, target)

			handlerLock.Lock()
			defer handlerLock.Unlock()
			handle(target, result, err)
		}(target)
	}

	wg.Wait()
}
