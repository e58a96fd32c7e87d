package witness

import (
	"context"
	"log"
	"sync"
	"time"
)

// Batcher accumulates chain tips submitted via Submit and flushes them
// through a Coordinator either when the buffer reaches Size or a ticker
// fires, whichever comes first — a direct generalization of
// internal/chain/audit_bridge.go's AuditChainBridge, which batches
// (trace_id, hash) pairs the same way before calling Ledger.AppendBatch.
// A failed flush is logged and retried on the next tick rather than
// blocking Submit, matching the teacher's "fail open, log, don't block the
// caller" policy.
type Batcher struct {
	coordinator *Coordinator
	size        int
	interval    time.Duration
	ch          chan ChainTip
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewBatcher returns a Batcher that flushes through coordinator once size
// tips have accumulated or interval has elapsed, whichever is first.
// size <= 0 defaults to 20, interval <= 0 defaults to 30s — the same
// defaulting AuditChainBridge applies to its own batchSize/interval.
func NewBatcher(coordinator *Coordinator, size int, interval time.Duration) *Batcher {
	if size <= 0 {
		size = 20
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Batcher{
		coordinator: coordinator,
		size:        size,
		interval:    interval,
		ch:          make(chan ChainTip, 500),
		done:        make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (b *Batcher) Start() {
	b.wg.Add(1)
	go b.flushLoop()
}

// Stop signals the flush loop to drain and exit, blocking until it does.
func (b *Batcher) Stop() {
	close(b.done)
	b.wg.Wait()
}

// Submit enqueues tip for the next flush. It never blocks the caller: if
// the internal buffer is full the tip is dropped and logged, matching
// AuditChainBridge's "channel full → drop, don't block audit" policy.
func (b *Batcher) Submit(tip ChainTip) {
	select {
	case b.ch <- tip:
	default:
		log.Printf("[aqua] witness batcher buffer full, dropping tip for chain")
	}
}

func (b *Batcher) flushLoop() {
	defer b.wg.Done()
	var buf []ChainTip
	tick := time.NewTicker(b.interval)
	defer tick.Stop()
	flush := func() {
		if len(buf) == 0 {
			return
		}
		batchID := "witness-" + nowUnix().Format("20060102150405")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := b.coordinator.Witness(ctx, buf)
		cancel()
		if err != nil {
			log.Printf("[aqua] witness batch failed (batch_id=%s): %v", batchID, err)
			return
		}
		buf = nil
	}
	for {
		select {
		case <-b.done:
			for len(b.ch) > 0 {
				buf = append(buf, <-b.ch)
			}
			flush()
			return
		case tip := <-b.ch:
			buf = append(buf, tip)
			if len(buf) >= b.size {
				flush()
			}
		case <-tick.C:
			flush()
		}
	}
}

