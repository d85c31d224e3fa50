package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventbooking/internal/domain"
)

// BookingNotifier turns booking messages into confirmation and cancellation emails.
type BookingNotifier struct {
	email  domain.EmailService
	logger *slog.Logger
}

// NewBookingNotifier returns a BookingNotifier that sends through email.
func NewBookingNotifier(email domain.EmailService, logger *slog.Logger) *BookingNotifier {
	return &BookingNotifier{email: email, logger: logger}
}

// Handle sends the email matching msg.Type. Messages without a recipient are skipped.
func (n *BookingNotifier) Handle(ctx context.Context, msg *domain.BookingMessage) error {
	if msg.UserEmail == "" {
		n.logger.WarnContext(ctx, "booking message has no recipient, skipping", "booking_id", msg.BookingID)
		return nil
	}
	data := &domain.BookingEmailData{
		Email:         msg.UserEmail,
		Name:          msg.UserName,
		BookingID:     msg.BookingID,
		EventTitle:    msg.EventTitle,
		EventDate:     msg.EventDate,
		TicketsBooked: msg.TicketsBooked,
	}
	if data.EventTitle == "" {
		data.EventTitle = "your event"
	}
	switch msg.Type {
	case domain.BookingMessageCreated:
		return n.email.SendBookingConfirmed(ctx, data)
	case domain.BookingMessageCancelled:
		return n.email.SendBookingCancelled(ctx, data)
	default:
		return fmt.Errorf("unsupported booking message type %q", msg.Type)
	}
}
