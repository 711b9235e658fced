package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const defaultActivityBufferSize = 128

// OperationalActivitySink decouples controller activity writes from the
// backing store. Writes are queued and drained by one goroutine; when the
// queue is full or the primary write fails the entry goes to fallback.
type OperationalActivitySink struct {
	primary  ActivitySink
	fallback ActivitySink
	policy   ActivityRetentionPolicy
	pruner   ActivityRetentionPruner

	queue chan ActivityEntry
	now   func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewOperationalActivitySink(
	primary ActivitySink,
	fallback ActivitySink,
	policy ActivityRetentionPolicy,
	bufferSize int,
) (*OperationalActivitySink, error) {
	if primary == nil {
		return nil, fmt.Errorf("core: primary activity sink is required")
	}
	if bufferSize <= 0 {
		bufferSize = defaultActivityBufferSize
	}

	sink := &OperationalActivitySink{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		queue:    make(chan ActivityEntry, bufferSize),
		now: func() time.Time {
			return time.Now().UTC()
		},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if pruner, ok := primary.(ActivityRetentionPruner); ok {
		sink.pruner = pruner
	}

	go sink.run()
	return sink, nil
}

func (s *OperationalActivitySink) Record(ctx context.Context, entry ActivityEntry) error {
	if s == nil || s.primary == nil {
		return fmt.Errorf("core: operational activity sink is not configured")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	entry.Metadata = cloneFields(entry.Metadata)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopCh:
		return s.recordFallback(ctx, entry)
	case s.queue <- entry:
		return nil
	default:
		return s.recordFallback(ctx, entry)
	}
}

// List reads from the primary store when it supports reads.
func (s *OperationalActivitySink) List(ctx context.Context, filter ActivityFilter) (ActivityPage, error) {
	if s == nil || s.primary == nil {
		return ActivityPage{}, fmt.Errorf("core: operational activity sink is not configured")
	}
	reader, ok := s.primary.(ActivityReader)
	if !ok {
		return ActivityPage{}, fmt.Errorf("core: primary activity sink does not support listing")
	}
	return reader.List(ctx, filter)
}

func (s *OperationalActivitySink) EnforceRetention(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: operational activity sink is not configured")
	}
	if s.pruner == nil {
		return 0, nil
	}
	return s.pruner.Prune(ctx, s.policy)
}

// Close drains nothing further; queued entries that were not yet written are
// dropped.
func (s *OperationalActivitySink) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *OperationalActivitySink) recordFallback(ctx context.Context, entry ActivityEntry) error {
	if s.fallback != nil {
		return s.fallback.Record(ctx, entry)
	}
	return nil
}

func (s *OperationalActivitySink) run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		case entry := <-s.queue:
			if err := s.primary.Record(context.Background(), entry); err != nil && s.fallback != nil {
				_ = s.fallback.Record(context.Background(), entry)
			}
		}
	}
}

var (
	_ ActivitySink   = (*OperationalActivitySink)(nil)
	_ ActivityReader = (*OperationalActivitySink)(nil)
)
