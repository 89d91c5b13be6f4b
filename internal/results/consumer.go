package results

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	apperrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/idempotency"
	"github.com/voltbridge/markethub/pkg/logger"
)

const idempotencyConsumer = "calculation_results"

// Consumer reads calculation results off the result subscription and hands
// them to the handler. Each result is processed at most once per delivery
// window via the idempotency store.
type Consumer struct {
	handler      *Handler
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(handler *Handler, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("result handler is required")
	}
	if subscription == nil {
		return nil, errors.New("result subscription is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		handler:      handler,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled or the subscription
// errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process returns true when the message should be acked.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var result resultMessage
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal calculation result", err)
		return true
	}
	logCtx = c.logg.WithField(logCtx, "result_id", result.ResultID)

	alreadyProcessed, err := c.idempotency.CheckAndMarkProcessed(logCtx, idempotencyConsumer, result.ResultID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if alreadyProcessed {
		c.logg.Info(logCtx, "calculation result already processed")
		return true
	}

	if err := c.handler.Handle(logCtx, result); err != nil {
		return c.handleError(logCtx, result, err)
	}

	c.logg.Info(logCtx, "calculation result processed")
	return true
}

func (c *Consumer) handleError(ctx context.Context, result resultMessage, err error) bool {
	appErr := apperrors.As(err)
	code := apperrors.CodeInternal
	if appErr != nil {
		code = appErr.Code()
	}

	switch code {
	case apperrors.CodeCorrelationMismatch:
		// No recipient can be addressed; log loudly and drop the message.
		c.logg.Error(ctx, "calculation result matches no known process", err)
		return true
	default:
		if apperrors.MetadataFor(code).Retryable {
			// Unmark so the redelivery is not skipped as a duplicate.
			if delErr := c.idempotency.Delete(ctx, idempotencyConsumer, result.ResultID); delErr != nil {
				c.logg.Error(ctx, "failed to clear idempotency mark before retry", delErr)
			}
			c.logg.Error(ctx, "transient failure handling calculation result", err)
			return false
		}
		c.logg.Error(ctx, "dropping unprocessable calculation result", err)
		return true
	}
}
