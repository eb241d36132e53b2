package workers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
)

const (
	DefaultArchiveStream = "interview:archive"
	DefaultArchiveGroup  = "archive-workers"
	sinkTimeout          = 30 * time.Second
)

// storeAll hands e to every sink and logs failures. It never fails.
func storeAll(ctx context.Context, sinks []Sink, log *logrus.Logger, e models.ArchiveEntry) {
	for _, s := range sinks {
		sctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := s.Store(sctx, e)
		cancel()
		entry := log.WithFields(logrus.Fields{"sink": s.Name(), "session_id": e.SessionID})
		if err != nil {
			entry.WithError(err).Error("archive sink failed")
			continue
		}
		entry.Debug("archived interview")
	}
}

// DirectArchiver runs the sinks in a background goroutine. Used when no Redis
// stream is configured.
type DirectArchiver struct {
	Sinks  []Sink
	Logger *logrus.Logger

	wg sync.WaitGroup
}

func (a *DirectArchiver) Archive(ctx context.Context, e models.ArchiveEntry) error {
	if len(a.Sinks) == 0 {
		return nil
	}
	log := a.Logger
	if log == nil {
		log = logger.Discard()
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		storeAll(context.WithoutCancel(ctx), a.Sinks, log, e)
	}()
	return nil
}

// Wait blocks until every background archive has finished.
func (a *DirectArchiver) Wait() { a.wg.Wait() }

// StreamArchiver publishes entries to a Redis stream consumed by ArchiveWorkerPool.
type StreamArchiver struct {
	Redis  redis.UniversalClient
	Stream string
	// MaxLen caps the stream length; 0 leaves it unbounded.
	MaxLen int64
}

func (a *StreamArchiver) Archive(ctx context.Context, e models.ArchiveEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	stream := a.Stream
	if stream == "" {
		stream = DefaultArchiveStream
	}
	return a.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: a.MaxLen,
		Approx: a.MaxLen > 0,
		Values: map[string]any{
			"session_id": e.SessionID,
			"payload":    string(payload),
		},
	}).Err()
}
