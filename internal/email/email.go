package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/gulfair/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Message is a rendered notification e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers booking notifications. Delivery is a structured log line;
// there is no SMTP relay in this deployment.
type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		s.log.WithField("booking_reference", event.BookingReference).Warn("event without recipient, skipping")
		return nil
	}
	msg := Render(event)
	s.log.WithFields(logrus.Fields{
		"to":                msg.To,
		"subject":           msg.Subject,
		"event":             event.Type,
		"booking_reference": event.BookingReference,
	}).Info(msg.Body)
	return nil
}

// Render builds the e-mail for a booking event.
func Render(event kafka.BookingEvent) Message {
	msg := Message{To: event.Email}
	switch event.Type {
	case kafka.EventBookingCreated:
		msg.Subject = fmt.Sprintf("Booking %s confirmed", event.BookingReference)
		msg.Body = fmt.Sprintf("Dear %s, your %s seat %s on flight %s is confirmed.",
			event.PassengerName, event.SeatClass, event.SeatNumber, flightLabel(event))
	case kafka.EventBookingCancelled:
		msg.Subject = fmt.Sprintf("Booking %s cancelled", event.BookingReference)
		msg.Body = fmt.Sprintf("Dear %s, booking %s has been cancelled. A refund of %.2f will be issued.",
			event.PassengerName, event.BookingReference, event.TotalPrice)
	case kafka.EventBookingRescheduled:
		msg.Subject = fmt.Sprintf("Booking %s rescheduled", event.PreviousRef)
		msg.Body = fmt.Sprintf("Dear %s, booking %s was moved to flight %s. Your new reference is %s.",
			event.PassengerName, event.PreviousRef, flightLabel(event), event.BookingReference)
	case kafka.EventBookingCheckedIn:
		msg.Subject = fmt.Sprintf("Checked in for %s", flightLabel(event))
		msg.Body = fmt.Sprintf("Dear %s, you are checked in for booking %s, seat %s.",
			event.PassengerName, event.BookingReference, event.SeatNumber)
	default:
		msg.Subject = fmt.Sprintf("Update on booking %s", event.BookingReference)
		msg.Body = fmt.Sprintf("Booking %s is now %s.", event.BookingReference, event.Status)
	}
	return msg
}

func flightLabel(event kafka.BookingEvent) string {
	if event.FlightNumber != "" {
		return event.FlightNumber
	}
	return fmt.Sprintf("#%d", event.FlightID)
}
