package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/chaiyot/bay-booking/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// IntakeMessage is the structured booking request produced by the extraction
// side for each upstream notification.
type IntakeMessage struct {
	MessageID     string            `json:"message_id"`
	SourceType    models.SourceType `json:"source_type"`
	Action        string            `json:"action"` // "create" or "cancel"
	Subject       string            `json:"subject,omitempty"`
	MessageDate   string            `json:"message_date,omitempty"`
	Name          string            `json:"name"`
	Phone         string            `json:"phone,omitempty"`
	Email         string            `json:"email,omitempty"`
	Date          string            `json:"date"`
	StartTime     string            `json:"start_time"`
	DurationHours float64           `json:"duration_hours"`
	PartySize     int               `json:"party_size"`
	Bay           string            `json:"bay,omitempty"`
	ExternalKey   string            `json:"external_key,omitempty"`
	Channel       string            `json:"channel"`
	Notes         string            `json:"notes,omitempty"`
}

type IntakeConsumer struct {
	guard     service.IngestGuard
	matcher   service.CustomerMatcher
	allocator service.ResourceAllocator
	publisher *rabbitmq.Publisher
}

func NewIntakeConsumer(guard service.IngestGuard, matcher service.CustomerMatcher, allocator service.ResourceAllocator, publisher *rabbitmq.Publisher) *IntakeConsumer {
	return &IntakeConsumer{guard: guard, matcher: matcher, allocator: allocator, publisher: publisher}
}

// Start runs the intake pipeline: idempotency check, customer match, bay
// allocation, outcome record, outcome event. One message failing never stops
// the loop.
func (ic *IntakeConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			ic.handleMessage(msg)
		}
		log.Println("[IntakeConsumer] channel closed, stopping consumer")
	}()
}

func (ic *IntakeConsumer) handleMessage(msg amqp.Delivery) {
	ctx := context.Background()

	var req IntakeMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		log.Printf("[IntakeConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	// A message that can never pass the idempotency barrier must be rejected
	// before any action runs, or each redelivery would act again
	if strings.TrimSpace(req.MessageID) == "" || !models.ValidSourceType(req.SourceType) {
		log.Printf("[IntakeConsumer] dropping malformed message id=%q source=%q", req.MessageID, req.SourceType)
		msg.Nack(false, false)
		return
	}

	processed, err := ic.guard.IsProcessed(ctx, req.MessageID)
	if err != nil {
		log.Printf("[IntakeConsumer] idempotency check failed for %s: %v", req.MessageID, err)
		msg.Nack(false, true) // requeue, store hiccup
		return
	}
	if processed {
		log.Printf("[IntakeConsumer] message %s already processed, skipping", req.MessageID)
		msg.Ack(false)
		return
	}

	var action models.ActionTaken
	var reservationID, errorText, routingKey string

	switch req.Action {
	case "cancel":
		action, reservationID, errorText, routingKey = ic.processCancel(ctx, req)
	default:
		action, reservationID, errorText, routingKey = ic.processCreate(ctx, req)
	}

	if _, err := ic.guard.MarkProcessed(ctx, service.MarkProcessedInput{
		MessageID:     req.MessageID,
		SourceType:    req.SourceType,
		Action:        action,
		ReservationID: reservationID,
		ErrorText:     errorText,
		Subject:       req.Subject,
		MessageDate:   req.MessageDate,
	}); err != nil {
		if errors.Is(err, service.ErrInvalidMessage) || errors.Is(err, service.ErrInvalidSource) || errors.Is(err, service.ErrInvalidAction) {
			// Validation failures never heal on redelivery
			log.Printf("[IntakeConsumer] dropping unrecordable message %s: %v", req.MessageID, err)
			msg.Nack(false, false)
			return
		}
		log.Printf("[IntakeConsumer] failed to record outcome for %s: %v", req.MessageID, err)
		msg.Nack(false, true)
		return
	}

	if ic.publisher != nil {
		if err := ic.publisher.Publish(routingKey, map[string]any{
			"action":         action,
			"reservation_id": reservationID,
			"error":          errorText,
			"request":        req,
		}); err != nil {
			// Outcome is already recorded; losing the notification is
			// preferable to reprocessing the message
			log.Printf("[IntakeConsumer] failed to publish outcome for %s: %v", req.MessageID, err)
		}
	}

	msg.Ack(false)
}

func (ic *IntakeConsumer) processCreate(ctx context.Context, req IntakeMessage) (models.ActionTaken, string, string, string) {
	data := service.CreateReservationData{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Date:           req.Date,
		StartTime:      req.StartTime,
		Duration:       req.DurationHours,
		NumberOfPeople: req.PartySize,
		Bay:            req.Bay,
		SourceChannel:  req.Channel,
		ExternalKey:    req.ExternalKey,
		Notes:          req.Notes,
	}

	// Fuzzy name matching is only trusted for email confirmations, where the
	// vendor echoes the name the customer registered with
	allowFuzzy := req.SourceType == models.SourceEmail

	match, err := ic.matcher.GetOrCreateCustomer(ctx, service.CustomerData{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}, allowFuzzy)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateContact) || errors.Is(err, service.ErrMissingContact) {
			// Matching failed but the booking itself may still stand as a
			// guest reservation
			log.Printf("[IntakeConsumer] customer match failed for %s: %v, booking as guest", req.MessageID, err)
		} else {
			return models.ActionError, "", err.Error(), "intake.error"
		}
	} else {
		data.CustomerID = &match.Customer.ID
	}

	reservation, err := ic.allocator.CreateReservation(ctx, data)
	switch {
	case err == nil:
		return models.ActionReservationCreated, reservation.ID, "", "reservation.created"
	case errors.Is(err, service.ErrNoCapacity):
		return models.ActionNoCapacity, "", "", "intake.no_capacity"
	default:
		return models.ActionError, "", err.Error(), "intake.error"
	}
}

func (ic *IntakeConsumer) processCancel(ctx context.Context, req IntakeMessage) (models.ActionTaken, string, string, string) {
	var target *models.Reservation
	var err error

	if req.ExternalKey != "" {
		target, err = ic.allocator.FindByExternalKey(ctx, req.ExternalKey)
		if err != nil {
			return models.ActionError, "", err.Error(), "intake.error"
		}
	}
	if target == nil {
		target, err = ic.allocator.FindByDetails(ctx, req.Name, req.Phone, req.Email, req.Date, req.StartTime, &req.Channel)
		if err != nil {
			return models.ActionError, "", err.Error(), "intake.error"
		}
	}
	if target == nil {
		return models.ActionError, "", "no matching reservation to cancel", "intake.error"
	}

	cancelled, err := ic.allocator.CancelReservation(ctx, target.ID, "cancelled via "+req.Channel, string(req.SourceType))
	if err != nil {
		return models.ActionError, "", err.Error(), "intake.error"
	}
	return models.ActionReservationCancelled, cancelled.ID, "", "reservation.cancelled"
}
