package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/repository"
)

type MarkProcessedInput struct {
	MessageID     string
	SourceType    models.SourceType
	Action        models.ActionTaken
	ReservationID string
	ErrorText     string
	Subject       string
	// Free-text date from the upstream message, parsed best-effort
	MessageDate string
}

type IngestStats struct {
	Total    int64                        `json:"total"`
	ByAction map[models.ActionTaken]int64 `json:"by_action"`
}

type IngestGuard interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, input MarkProcessedInput) (*models.ProcessedMessage, error)
	GetHistory(ctx context.Context, sourceType *models.SourceType, limit int) ([]models.ProcessedMessage, error)
	GetStats(ctx context.Context, sourceType *models.SourceType) (*IngestStats, error)
}

type ingestGuard struct {
	repo repository.ProcessedMessageRepository
}

func NewIngestGuard(repo repository.ProcessedMessageRepository) IngestGuard {
	return &ingestGuard{repo: repo}
}

func (g *ingestGuard) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	return g.repo.Exists(ctx, messageID)
}

// MarkProcessed inserts the one-time processing record for a message. A
// duplicate insert (concurrent retry) is not an error: the pre-existing record
// is fetched and returned unchanged.
func (g *ingestGuard) MarkProcessed(ctx context.Context, input MarkProcessedInput) (*models.ProcessedMessage, error) {
	if strings.TrimSpace(input.MessageID) == "" {
		return nil, ErrInvalidMessage
	}
	if !models.ValidSourceType(input.SourceType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, input.SourceType)
	}
	if !models.ValidActionTaken(input.Action) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, input.Action)
	}

	record := &models.ProcessedMessage{
		MessageID:   input.MessageID,
		SourceType:  input.SourceType,
		ActionTaken: input.Action,
		MessageDate: parseMessageDate(input.MessageID, input.MessageDate),
	}
	if input.ReservationID != "" {
		record.ReservationID = &input.ReservationID
	}
	if input.ErrorText != "" {
		record.ErrorMessage = &input.ErrorText
	}
	if input.Subject != "" {
		record.Subject = &input.Subject
	}

	err := g.repo.Insert(ctx, record)
	if err == nil {
		return record, nil
	}
	if isUniqueViolation(err) {
		existing, ferr := g.repo.FindByMessageID(ctx, input.MessageID)
		if ferr != nil {
			return nil, fmt.Errorf("refetch processed message %s: %w", input.MessageID, ferr)
		}
		return existing, nil
	}
	return nil, fmt.Errorf("mark processed %s: %w", input.MessageID, err)
}

func (g *ingestGuard) GetHistory(ctx context.Context, sourceType *models.SourceType, limit int) ([]models.ProcessedMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return g.repo.List(ctx, sourceType, limit)
}

func (g *ingestGuard) GetStats(ctx context.Context, sourceType *models.SourceType) (*IngestStats, error) {
	counts, err := g.repo.CountByAction(ctx, sourceType)
	if err != nil {
		return nil, err
	}

	stats := &IngestStats{ByAction: make(map[models.ActionTaken]int64)}
	for _, c := range counts {
		stats.ByAction[c.ActionTaken] = c.Count
		stats.Total += c.Count
	}
	return stats, nil
}

var messageDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
}

// parseMessageDate tries the common upstream date formats; an unparseable date
// is stored as null with a warning rather than failing the barrier insert.
func parseMessageDate(messageID, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range messageDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	log.Printf("[IngestGuard] unparseable message date %q on %s, storing null", raw, messageID)
	return nil
}
