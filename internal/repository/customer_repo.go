package repository

import (
	"context"

	"github.com/chaiyot/bay-booking/internal/models"
	"gorm.io/gorm"
)

// NameCandidate is a fuzzy-search hit with its pg_trgm similarity score.
type NameCandidate struct {
	Customer   models.Customer
	Similarity float64
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindByNormalizedPhone(ctx context.Context, normalized string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	SearchByNameSimilarity(ctx context.Context, name string, threshold float64) ([]NameCandidate, error)
	NextCodeValue(ctx context.Context) (int64, error)
	GetDB() *gorm.DB
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByNormalizedPhone(ctx context.Context, normalized string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("normalized_phone = ? AND is_active", normalized).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND is_active", email).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// SearchByNameSimilarity returns active customers whose name trigram-matches
// the input at or above threshold, best first. Requires pg_trgm.
func (r *customerRepository) SearchByNameSimilarity(ctx context.Context, name string, threshold float64) ([]NameCandidate, error) {
	rows := []struct {
		models.Customer
		Similarity float64
	}{}

	err := r.db.WithContext(ctx).
		Raw(`
			SELECT *, similarity(customer_name, ?) AS similarity
			FROM customers
			WHERE is_active AND similarity(customer_name, ?) >= ?
			ORDER BY similarity DESC`,
			name, name, threshold,
		).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]NameCandidate, len(rows))
	for i, row := range rows {
		candidates[i] = NameCandidate{Customer: row.Customer, Similarity: row.Similarity}
	}
	return candidates, nil
}

// NextCodeValue pulls the next customer code number from the database
// sequence. Codes are never derived by scanning existing rows.
func (r *customerRepository) NextCodeValue(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Raw(`SELECT nextval('customer_code_seq')`).
		Scan(&next).Error
	return next, err
}
