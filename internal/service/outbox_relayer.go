package service

import (
	"context"
	"log/slog"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/repository"
)

type Sender func(ctx context.Context, ob *model.ForumOutbox) error

// OutboxRelayer outbox表相关服务
type OutboxRelayer struct {
	repo      repository.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	logger    *slog.Logger
}

func NewOutboxRelayer(repo repository.OutboxRepository, sender Sender, logger *slog.Logger) *OutboxRelayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
		logger:    logger,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// Outbox 投递器，从数据库读取事件异步交给下游
func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("outbox query failed", "err", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			_ = r.repo.MarkFailed(ctx, ob.ID)
			continue
		}
		_ = r.repo.MarkSent(ctx, ob.ID)
	}
}

// KafkaSender 投递到 kafka，key 取 postID 保证同帖事件有序
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.ForumOutbox) error {
		return producer.SendJSON(ctx, ob.PostID, map[string]any{
			"eventType": ob.EventType,
			"actorId":   ob.ActorID,
			"postId":    ob.PostID,
			"payload":   ob.Payload,
			"occurred":  ob.CreatedAt,
		})
	}
}

// LogSender 默认 sender（占位）：未配置 kafka 时仅打印
func LogSender(logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, ob *model.ForumOutbox) error {
		logger.Info("outbox send", "type", ob.EventType, "actor", ob.ActorID, "post", ob.PostID, "payload", ob.Payload)
		return nil
	}
}
