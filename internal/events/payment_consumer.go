package events

import (
	"context"

	"github.com/campusrent/service-rental/internal/platform/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentApplier marks a booking as paid after the payment service settles
// the charge. Implemented by the booking application service.
type PaymentApplier interface {
	HandlePaymentSucceeded(ctx context.Context, bookingID, paymentID uuid.UUID) error
}

// PaymentEventConsumer listens to payment events and moves bookings from
// confirmed to paid. This is the out-of-band gate for the paid transition;
// the service itself never takes payments.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	applier  PaymentApplier
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a PaymentEventConsumer.
func NewPaymentEventConsumer(brokers []string, groupID string, applier PaymentApplier, logger *zap.Logger) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{consumer: consumer, applier: applier, logger: logger}
}

// Start begins consuming payment events. Blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentSucceeded:
		return c.handlePaymentSucceeded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentSucceeded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PaymentSucceededEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentSucceededEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment succeeded event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
	)

	if err := c.applier.HandlePaymentSucceeded(ctx, evt.BookingID, evt.PaymentID); err != nil {
		c.logger.Error("failed to mark booking paid",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
