package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/Pikkuherkko/HH-Lotto/raffle"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Fulfiller receives completed randomness deliveries. The raffle service
// satisfies it.
type Fulfiller interface {
	DeliverRandomness(ctx context.Context, requestID string, words []uint64) (*models.WinnerRecord, error)
}

// NATSSource implements raffle.RandomnessSource over NATS. Each Request
// publishes an envelope with a fresh id and returns immediately; the
// external oracle answers on the fulfillment subject.
type NATSSource struct {
	client         *Client
	requestSubject string
}

// NewNATSSource creates a randomness source publishing to requestSubject
func NewNATSSource(client *Client, requestSubject string) *NATSSource {
	return &NATSSource{
		client:         client,
		requestSubject: requestSubject,
	}
}

// Request publishes a randomness request and returns its id. The id is
// generated locally so correlation works even if the oracle dedupes.
func (s *NATSSource) Request(ctx context.Context, params raffle.RequestParams) (string, error) {
	msg := RandomnessRequestMessage{
		RequestID:     uuid.New().String(),
		KeyParams:     params.KeyParams,
		Confirmations: params.Confirmations,
		CallbackLimit: params.CallbackLimit,
		NumWords:      params.NumWords,
		RequestedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal randomness request: %w", err)
	}
	if err := s.client.Publish(ctx, s.requestSubject, data); err != nil {
		return "", fmt.Errorf("failed to publish randomness request: %w", err)
	}

	log.WithFields(log.Fields{
		"requestId": msg.RequestID,
		"subject":   s.requestSubject,
	}).Info("Randomness requested from oracle")
	return msg.RequestID, nil
}

// FulfillmentConsumer feeds oracle fulfillments into the raffle
type FulfillmentConsumer struct {
	client             *Client
	fulfillmentSubject string
	fulfiller          Fulfiller
}

// NewFulfillmentConsumer creates a consumer for the fulfillment subject
func NewFulfillmentConsumer(client *Client, fulfillmentSubject string, fulfiller Fulfiller) *FulfillmentConsumer {
	return &FulfillmentConsumer{
		client:             client,
		fulfillmentSubject: fulfillmentSubject,
		fulfiller:          fulfiller,
	}
}

// Start subscribes to the fulfillment subject. Fulfillments for unknown or
// already-settled requests are acknowledged and dropped; transient failures
// are retried by the broker.
func (c *FulfillmentConsumer) Start(ctx context.Context) error {
	return c.client.Subscribe(c.fulfillmentSubject, func(data []byte) error {
		var msg RandomnessFulfillmentMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Malformed payloads never become valid on redelivery.
			log.WithError(err).Error("Discarding malformed fulfillment")
			return nil
		}

		record, err := c.fulfiller.DeliverRandomness(ctx, msg.RequestID, msg.Words)
		if err != nil {
			if errors.Is(err, raffle.ErrUnknownRequest) {
				log.WithField("requestId", msg.RequestID).
					Warn("Dropping fulfillment for unknown request")
				return nil
			}
			return fmt.Errorf("failed to deliver randomness: %w", err)
		}

		log.WithFields(log.Fields{
			"requestId": msg.RequestID,
			"winner":    record.Winner,
		}).Info("Oracle fulfillment settled the round")
		return nil
	})
}
