package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/repository"
	"gorm.io/gorm"
)

const (
	MatchedByPhone     = "phone"
	MatchedByEmail     = "email"
	MatchedByFuzzyName = "fuzzy_name"

	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"

	codeRetryLimit = 5
)

type MatchResult struct {
	Customer   *models.Customer
	MatchedBy  string
	Confidence string
}

type GetOrCreateResult struct {
	Customer   *models.Customer
	IsNew      bool
	MatchedBy  string
	Confidence string
}

type CustomerData struct {
	Name  string
	Phone string
	Email string
}

type CustomerMatcher interface {
	MatchCustomer(ctx context.Context, name, phone, email string, allowFuzzyName bool) (*MatchResult, error)
	CreateCustomer(ctx context.Context, data CustomerData) (*models.Customer, error)
	GetOrCreateCustomer(ctx context.Context, data CustomerData, allowFuzzyName bool) (*GetOrCreateResult, error)
}

type customerMatcher struct {
	repo           repository.CustomerRepository
	fuzzyThreshold float64
}

func NewCustomerMatcher(repo repository.CustomerRepository, fuzzyThreshold float64) CustomerMatcher {
	return &customerMatcher{repo: repo, fuzzyThreshold: fuzzyThreshold}
}

// NormalizePhone reduces a raw phone string to its last 9 significant digits:
// non-digits stripped, a leading "66" country code dropped, then one leading
// zero dropped. Anything shorter than 9 digits is unmatchable and returns "".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(digits, "66") && len(digits) > 9 {
		digits = digits[2:]
	}
	digits = strings.TrimPrefix(digits, "0")

	if len(digits) < 9 {
		return ""
	}
	return digits[len(digits)-9:]
}

func (m *customerMatcher) MatchCustomer(ctx context.Context, name, phone, email string, allowFuzzyName bool) (*MatchResult, error) {
	if key := NormalizePhone(phone); key != "" {
		customer, err := m.repo.FindByNormalizedPhone(ctx, key)
		if err == nil {
			return &MatchResult{Customer: customer, MatchedBy: MatchedByPhone, Confidence: ConfidenceHigh}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if email = strings.TrimSpace(email); email != "" {
		customer, err := m.repo.FindByEmail(ctx, email)
		if err == nil {
			return &MatchResult{Customer: customer, MatchedBy: MatchedByEmail, Confidence: ConfidenceHigh}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Fuzzy matching is opt-in per caller: safe for channels where names are
	// typed carefully, unsafe for ad-lead forms.
	if allowFuzzyName && strings.TrimSpace(name) != "" {
		candidates, err := m.repo.SearchByNameSimilarity(ctx, name, m.fuzzyThreshold)
		if err != nil {
			return nil, err
		}
		switch len(candidates) {
		case 0:
		case 1:
			return &MatchResult{
				Customer:   &candidates[0].Customer,
				MatchedBy:  MatchedByFuzzyName,
				Confidence: ConfidenceMedium,
			}, nil
		default:
			// More than one qualifying candidate: never guess. A duplicate
			// customer is recoverable, a mis-link is not.
			log.Printf("[CustomerMatcher] ambiguous fuzzy match for %q (%d candidates), treating as no match", name, len(candidates))
		}
	}

	return nil, nil
}

func (m *customerMatcher) CreateCustomer(ctx context.Context, data CustomerData) (*models.Customer, error) {
	name := strings.TrimSpace(data.Name)
	phone := strings.TrimSpace(data.Phone)
	email := strings.TrimSpace(data.Email)
	if name == "" || (phone == "" && email == "") {
		return nil, ErrMissingContact
	}

	normalized := NormalizePhone(phone)
	if normalized != "" {
		_, err := m.repo.FindByNormalizedPhone(ctx, normalized)
		if err == nil {
			return nil, ErrDuplicateContact
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	for attempt := 1; attempt <= codeRetryLimit; attempt++ {
		next, err := m.repo.NextCodeValue(ctx)
		if err != nil {
			return nil, fmt.Errorf("next customer code: %w", err)
		}

		customer := &models.Customer{
			CustomerCode: fmt.Sprintf("CUS%05d", next),
			CustomerName: name,
			IsActive:     true,
		}
		if phone != "" {
			customer.ContactNumber = &phone
		}
		if email != "" {
			customer.Email = &email
		}
		if normalized != "" {
			customer.NormalizedPhone = &normalized
		}

		err = m.repo.Create(ctx, customer)
		if err == nil {
			return customer, nil
		}
		if isUniqueViolation(err) {
			if violatedConstraint(err) == "idx_customer_active_phone" {
				// Concurrent writer won the phone; surface, never retry
				return nil, ErrDuplicateContact
			}
			// Code collision (e.g. sequence reset): back off and retry with a
			// fresh value
			log.Printf("[CustomerMatcher] customer code collision on %s (attempt %d/%d)", customer.CustomerCode, attempt, codeRetryLimit)
			time.Sleep(time.Duration(rand.Intn(50)+10) * time.Millisecond)
			continue
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return nil, ErrCodeCollision
}

func (m *customerMatcher) GetOrCreateCustomer(ctx context.Context, data CustomerData, allowFuzzyName bool) (*GetOrCreateResult, error) {
	match, err := m.MatchCustomer(ctx, data.Name, data.Phone, data.Email, allowFuzzyName)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return &GetOrCreateResult{
			Customer:   match.Customer,
			MatchedBy:  match.MatchedBy,
			Confidence: match.Confidence,
		}, nil
	}

	customer, err := m.CreateCustomer(ctx, data)
	if err != nil {
		return nil, err
	}
	return &GetOrCreateResult{Customer: customer, IsNew: true}, nil
}
