package repository

import (
	"context"

	"github.com/chaiyot/bay-booking/internal/models"
	"gorm.io/gorm"
)

type ActionCount struct {
	ActionTaken models.ActionTaken
	Count       int64
}

type ProcessedMessageRepository interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	Insert(ctx context.Context, record *models.ProcessedMessage) error
	FindByMessageID(ctx context.Context, messageID string) (*models.ProcessedMessage, error)
	List(ctx context.Context, sourceType *models.SourceType, limit int) ([]models.ProcessedMessage, error)
	CountByAction(ctx context.Context, sourceType *models.SourceType) ([]ActionCount, error)
}

type processedMessageRepository struct {
	db *gorm.DB
}

func NewProcessedMessageRepository(db *gorm.DB) ProcessedMessageRepository {
	return &processedMessageRepository{db: db}
}

func (r *processedMessageRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedMessage{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	return count > 0, err
}

func (r *processedMessageRepository) Insert(ctx context.Context, record *models.ProcessedMessage) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *processedMessageRepository) FindByMessageID(ctx context.Context, messageID string) (*models.ProcessedMessage, error) {
	var record models.ProcessedMessage
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *processedMessageRepository) List(ctx context.Context, sourceType *models.SourceType, limit int) ([]models.ProcessedMessage, error) {
	var records []models.ProcessedMessage
	q := r.db.WithContext(ctx).Order("processed_at DESC").Limit(limit)
	if sourceType != nil {
		q = q.Where("source_type = ?", *sourceType)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *processedMessageRepository) CountByAction(ctx context.Context, sourceType *models.SourceType) ([]ActionCount, error) {
	var counts []ActionCount
	q := r.db.WithContext(ctx).
		Model(&models.ProcessedMessage{}).
		Select("action_taken, COUNT(*) AS count").
		Group("action_taken")
	if sourceType != nil {
		q = q.Where("source_type = ?", *sourceType)
	}
	if err := q.Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
