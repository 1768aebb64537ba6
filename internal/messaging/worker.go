package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

// Executor processes the dequeued requests. In production this is the
// resilience envelope, so background work gets the same guards as inline
// work.
type Executor interface {
	CreateAccount(ctx context.Context, req domain.AccountCreationRequest) (*domain.Account, error)
	Credit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
	Debit(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResult, error)
}

type WorkerConfig struct {
	Group         string
	Consumer      string
	BatchSize     int64
	BlockDuration time.Duration
}

func DefaultWorkerConfig(consumer string) WorkerConfig {
	return WorkerConfig{
		Group:         "banking-workers",
		Consumer:      consumer,
		BatchSize:     10,
		BlockDuration: 5 * time.Second,
	}
}

// Worker drains the request streams and executes each request. Failed
// messages are not acknowledged and stay pending for redelivery.
type Worker struct {
	client    *redis.Client
	publisher *Publisher
	exec      Executor
	cfg       WorkerConfig
	log       *zap.Logger
}

func NewWorker(client *redis.Client, publisher *Publisher, exec Executor, cfg WorkerConfig, log *zap.Logger) *Worker {
	return &Worker{client: client, publisher: publisher, exec: exec, cfg: cfg, log: log}
}

// Start blocks until ctx is cancelled, consuming all request streams.
func (w *Worker) Start(ctx context.Context) error {
	streams := []string{StreamAccountCreate, StreamCredit, StreamDebit}
	for _, stream := range streams {
		err := w.client.XGroupCreateMkStream(ctx, stream, w.cfg.Group, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
		}
	}
	w.log.Info("worker started",
		zap.String("group", w.cfg.Group),
		zap.String("consumer", w.cfg.Consumer))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker stopping")
			return ctx.Err()
		default:
			if err := w.readBatch(ctx, streams); err != nil && err != context.Canceled {
				w.log.Error("failed to read from streams", zap.Error(err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) readBatch(ctx context.Context, streams []string) error {
	ids := make([]string, 0, len(streams)*2)
	ids = append(ids, streams...)
	for range streams {
		ids = append(ids, ">")
	}

	result, err := w.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.cfg.Group,
		Consumer: w.cfg.Consumer,
		Streams:  ids,
		Count:    w.cfg.BatchSize,
		Block:    w.cfg.BlockDuration,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range result {
		for _, message := range stream.Messages {
			if err := w.handleMessage(ctx, stream.Stream, message); err != nil {
				w.log.Error("failed to process message",
					zap.String("stream", stream.Stream),
					zap.String("messageId", message.ID),
					zap.Error(err))
				continue
			}
			if err := w.client.XAck(ctx, stream.Stream, w.cfg.Group, message.ID).Err(); err != nil {
				w.log.Error("failed to ack message",
					zap.String("stream", stream.Stream),
					zap.String("messageId", message.ID),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, stream string, message redis.XMessage) error {
	payload, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}
	switch stream {
	case StreamAccountCreate:
		return w.handleAccountCreate(ctx, []byte(payload))
	case StreamCredit:
		return w.handleTransaction(ctx, []byte(payload), w.exec.Credit)
	case StreamDebit:
		return w.handleTransaction(ctx, []byte(payload), w.exec.Debit)
	default:
		return fmt.Errorf("unexpected stream %s", stream)
	}
}

func (w *Worker) handleAccountCreate(ctx context.Context, payload []byte) error {
	var msg struct {
		Data AsyncAccountRequest `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal account request: %w", err)
	}

	account, err := w.exec.CreateAccount(ctx, msg.Data.Request)
	if err != nil && domain.IsFault(err) {
		// Infrastructure faults leave the message pending for retry.
		return err
	}
	if pubErr := w.publisher.PublishAccountOutcome(ctx, msg.Data.RequestID, account, err); pubErr != nil {
		w.log.Error("failed to publish account outcome",
			zap.String("requestId", msg.Data.RequestID),
			zap.Error(pubErr))
	}
	return nil
}

func (w *Worker) handleTransaction(ctx context.Context, payload []byte, fn func(context.Context, domain.TransactionRequest) (domain.TransactionResult, error)) error {
	var msg struct {
		Data AsyncTransactionRequest `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal transaction request: %w", err)
	}

	_, err := fn(ctx, msg.Data.Request)
	if err != nil && domain.IsFault(err) {
		return err
	}
	if err != nil {
		// Client errors (unknown account and the like) cannot succeed on
		// redelivery. Report and acknowledge.
		w.log.Warn("async transaction rejected",
			zap.String("requestId", msg.Data.RequestID),
			zap.String("accountId", msg.Data.Request.AccountID),
			zap.Error(err))
	}
	return nil
}
