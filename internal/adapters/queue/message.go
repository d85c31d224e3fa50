// Package queue moves booking messages over RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"

	"eventbooking/internal/domain"
)

// BookingQueue is the durable queue booking messages are published to.
const BookingQueue = "booking.events"

func encode(msg *domain.BookingMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal booking message: %w", err)
	}
	return body, nil
}

func decode(body []byte) (*domain.BookingMessage, error) {
	var msg domain.BookingMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal booking message: %w", err)
	}
	switch msg.Type {
	case domain.BookingMessageCreated, domain.BookingMessageCancelled:
	default:
		return nil, fmt.Errorf("unknown booking message type %q", msg.Type)
	}
	if msg.BookingID == "" {
		return nil, fmt.Errorf("booking message without booking_id")
	}
	return &msg, nil
}
