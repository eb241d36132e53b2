package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/internal/models"
)

// ArchiveWorkerPool consumes the archive stream with a consumer group and
// fans every entry out to the sinks.
type ArchiveWorkerPool struct {
	Redis      redis.UniversalClient
	Sinks      []Sink
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
	Block          time.Duration

	wg sync.WaitGroup
}

func (p *ArchiveWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || len(p.Sinks) == 0 {
		return errors.New("ArchiveWorkerPool missing dependency: Redis and at least one sink must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultArchiveStream
	}
	if p.Group == "" {
		p.Group = DefaultArchiveGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Block <= 0 {
		p.Block = 5 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		p.wg.Add(1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

// Wait returns once every consumer has stopped after ctx was cancelled.
func (p *ArchiveWorkerPool) Wait() { p.wg.Wait() }

func (p *ArchiveWorkerPool) runConsumer(ctx context.Context, consumer string) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    p.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).Warn("archive stream read failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(context.WithoutCancel(ctx), p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *ArchiveWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	log := p.Logger.WithField("redis_id", msg.ID)

	raw, _ := msg.Values["payload"].(string)
	if raw == "" {
		log.Warn("archive message without payload")
		return
	}
	var e models.ArchiveEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		log.WithError(err).Warn("archive payload decode failed")
		return
	}
	storeAll(context.WithoutCancel(ctx), p.Sinks, p.Logger, e)
}
