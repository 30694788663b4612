package repository

import (
	"context"

	"github.com/chaiyot/bay-booking/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindConfirmedByBayAndDate(ctx context.Context, tx *gorm.DB, bay, date string) ([]models.Reservation, error)
	FindMaxIDForPrefix(ctx context.Context, prefix string) (string, error)
	FindByExternalKey(ctx context.Context, key string) (*models.Reservation, error)
	FindConfirmedAt(ctx context.Context, date, startTime string, sourceChannel *string) ([]models.Reservation, error)
	Cancel(ctx context.Context, tx *gorm.DB, id, reason, cancelledBy string) error
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetDB() *gorm.DB
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *reservationRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindConfirmedByBayAndDate locks the matching rows when called inside a
// transaction so a concurrent allocation against the same bay serializes.
func (r *reservationRepository) FindConfirmedByBayAndDate(ctx context.Context, tx *gorm.DB, bay, date string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := tx.WithContext(ctx).
		Where("bay = ? AND date = ? AND status = ?", bay, date, models.StatusConfirmed).
		Order("start_time ASC")
	if tx != r.db {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) FindMaxIDForPrefix(ctx context.Context, prefix string) (string, error) {
	var maxID *string
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Select("MAX(id)").
		Where("id LIKE ?", prefix+"%").
		Scan(&maxID).Error
	if err != nil {
		return "", err
	}
	if maxID == nil {
		return "", nil
	}
	return *maxID, nil
}

func (r *reservationRepository) FindByExternalKey(ctx context.Context, key string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("external_key = ? AND status = ?", key, models.StatusConfirmed).
		Order("created_at DESC").
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindConfirmedAt(ctx context.Context, date, startTime string, sourceChannel *string) ([]models.Reservation, error) {
	var reservations []models.Reservation
	q := r.db.WithContext(ctx).
		Where("date = ? AND start_time = ? AND status = ?", date, startTime, models.StatusConfirmed)
	if sourceChannel != nil {
		q = q.Where("source_channel = ?", *sourceChannel)
	}
	if err := q.Order("id ASC").Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *reservationRepository) Cancel(ctx context.Context, tx *gorm.DB, id, reason, cancelledBy string) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
			"cancelled_by":        cancelledBy,
		}).Error
}
