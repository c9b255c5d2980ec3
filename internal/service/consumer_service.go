package service

import (
	"context"
	"encoding/json"

	"docquery-be/internal/dto"
	"docquery-be/internal/entity"
	"docquery-be/internal/pkg/logger"
	"docquery-be/internal/repository/unitofwork"
	"docquery-be/pkg/events"
	pktNats "docquery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService persists search interactions off the request path and
// forwards the analytics event to NATS when available.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher // nil when NATS is unavailable
	log            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SearchCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.log.Error("consumer", "Failed to unmarshal search event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	searchLog := entity.SearchLog{
		Id:          uuid.New(),
		UserId:      payload.UserId,
		Query:       payload.Query,
		Answer:      payload.Answer,
		SourceCount: payload.SourceCount,
		TokensUsed:  payload.TokensUsed,
		Degraded:    payload.Degraded,
		DurationMs:  payload.DurationMs,
	}
	if err := uow.SearchLogRepository().Create(ctx, &searchLog); err != nil {
		cs.log.Error("consumer", "Failed to persist search log", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserId.String(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	if cs.eventPublisher != nil {
		event := events.NewSearchCompleted(
			payload.UserId.String(),
			payload.Query,
			payload.SourceCount,
			payload.TokensUsed,
			payload.Degraded,
			payload.DurationMs,
		)
		if err := cs.eventPublisher.Publish(ctx, event); err != nil {
			// Analytics forwarding is best effort; the log row is the record.
			cs.log.Warn("consumer", "Failed to forward event to NATS", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
