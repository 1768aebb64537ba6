package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

// AsyncAccountRequest is the payload enqueued for background account
// creation.
type AsyncAccountRequest struct {
	RequestID string                        `json:"requestId"`
	Request   domain.AccountCreationRequest `json:"request"`
}

// AsyncTransactionRequest is the payload enqueued for background credits
// and debits.
type AsyncTransactionRequest struct {
	RequestID string                    `json:"requestId"`
	Type      domain.TransactionType    `json:"type"`
	Request   domain.TransactionRequest `json:"request"`
}

// Publisher writes messages to Redis streams. It serves both the outcome
// events emitted after processing and the request queues filled by the
// gateway under load.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) publish(ctx context.Context, stream, kind string, data any) error {
	msg := Message{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"event": payload,
		},
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return nil
}

// PublishTransactionEvent routes completed transactions to the processed
// stream and rejected ones to the failed stream.
func (p *Publisher) PublishTransactionEvent(ctx context.Context, event domain.TransactionEvent) error {
	stream := StreamTransactionProcessed
	kind := domain.EventTransactionCompleted
	if !event.Success {
		stream = StreamTransactionFailed
		kind = domain.EventTransactionRejected
	}
	return p.publish(ctx, stream, kind, event)
}

func (p *Publisher) PublishNotificationEvent(ctx context.Context, event domain.NotificationEvent) error {
	return p.publish(ctx, StreamNotifications, event.Type, event)
}

// PublishAccountOutcome reports the result of an asynchronous account
// creation on the created or failed stream.
func (p *Publisher) PublishAccountOutcome(ctx context.Context, requestID string, account *domain.Account, cause error) error {
	if cause != nil {
		return p.publish(ctx, StreamAccountFailed, "account.create.failed", map[string]any{
			"requestId": requestID,
			"error":     cause.Error(),
		})
	}
	return p.publish(ctx, StreamAccountCreated, domain.EventAccountCreated, map[string]any{
		"requestId": requestID,
		"account":   account,
	})
}

// DispatchAccountCreation enqueues an account creation request.
func (p *Publisher) DispatchAccountCreation(ctx context.Context, requestID string, req domain.AccountCreationRequest) error {
	return p.publish(ctx, StreamAccountCreate, KindAccountCreateRequested, AsyncAccountRequest{
		RequestID: requestID,
		Request:   req,
	})
}

// DispatchTransaction enqueues a credit or debit request.
func (p *Publisher) DispatchTransaction(ctx context.Context, requestID string, kind domain.TransactionType, req domain.TransactionRequest) error {
	stream := StreamCredit
	msgKind := KindCreditRequested
	if kind == domain.TypeDebit {
		stream = StreamDebit
		msgKind = KindDebitRequested
	}
	return p.publish(ctx, stream, msgKind, AsyncTransactionRequest{
		RequestID: requestID,
		Type:      kind,
		Request:   req,
	})
}
