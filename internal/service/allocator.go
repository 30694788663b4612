package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/repository"
	"gorm.io/gorm"
)

// Fixed bay layout. Multi-seat bays hold up to 5; duo bays up to 2.
var (
	MultiSeatBays = []string{"Bay 1", "Bay 2", "Bay 3"}
	DuoBays       = []string{"Duo A", "Duo B"}
)

const (
	MaxPartySize         = 5
	reservationIDPrefix  = "BK"
	allocateRetryLimit   = 5
	placeholderPhoneMark = "NOPHONE-"
)

type CreateReservationData struct {
	CustomerID     *uint
	Name           string
	Phone          string
	Email          string
	Date           string
	StartTime      string
	Duration       float64
	NumberOfPeople int
	Bay            string
	SourceChannel  string
	ExternalKey    string
	Notes          string
}

type Availability struct {
	Available bool
	Bay       string
}

type ResourceAllocator interface {
	CheckAvailability(ctx context.Context, date, startTime string, duration float64, partySize int) (*Availability, error)
	CreateReservation(ctx context.Context, data CreateReservationData) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	FindByExternalKey(ctx context.Context, key string) (*models.Reservation, error)
	FindByDetails(ctx context.Context, name, phone, email, date, startTime string, sourceChannel *string) (*models.Reservation, error)
}

type resourceAllocator struct {
	repo repository.ReservationRepository
}

func NewResourceAllocator(repo repository.ReservationRepository) ResourceAllocator {
	return &resourceAllocator{repo: repo}
}

// ParseTimeToStandard normalizes "h:mm AM/PM" or 24-hour "HH:mm" input to
// canonical zero-padded "HH:mm".
func ParseTimeToStandard(input string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	for _, layout := range []string{"15:04", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", ErrInvalidTime
}

// CalculateEndTime adds durationHours to a canonical start time, rounding the
// duration to the nearest minute, wrapping past midnight.
func CalculateEndTime(start string, durationHours float64) (string, error) {
	startMin, err := timeToMinutes(start)
	if err != nil {
		return "", err
	}
	end := (startMin + int(math.Round(durationHours*60))) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", end/60, end%60), nil
}

func timeToMinutes(t string) (int, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, ErrInvalidTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return h*60 + m, nil
}

// intervalsOverlap tests half-open intervals: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 && s2 < e1. Back-to-back slots do not conflict.
func intervalsOverlap(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// PreferredBays returns the bays to try for a party size, best first. A party
// larger than MaxPartySize gets no list at all.
func PreferredBays(partySize int) []string {
	switch {
	case partySize == 1:
		return append(append([]string{}, DuoBays...), MultiSeatBays...)
	case partySize == 2:
		return append(append([]string{}, MultiSeatBays...), DuoBays...)
	case partySize >= 3 && partySize <= MaxPartySize:
		return append([]string{}, MultiSeatBays...)
	default:
		return nil
	}
}

// isBayAvailable is the optimistic fast path; the exclusion constraint on
// insert is the real no-overlap guarantee.
func (a *resourceAllocator) isBayAvailable(ctx context.Context, tx *gorm.DB, bay, date, start string, duration float64, excludeID *string) (bool, error) {
	s, err := timeToMinutes(start)
	if err != nil {
		return false, err
	}
	e := s + int(math.Round(duration*60))

	existing, err := a.repo.FindConfirmedByBayAndDate(ctx, tx, bay, date)
	if err != nil {
		return false, err
	}
	for _, r := range existing {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		rs, err := timeToMinutes(r.StartTime)
		if err != nil {
			return false, fmt.Errorf("stored reservation %s has bad start time %q: %w", r.ID, r.StartTime, err)
		}
		re := rs + int(math.Round(r.Duration*60))
		if intervalsOverlap(s, e, rs, re) {
			return false, nil
		}
	}
	return true, nil
}

func (a *resourceAllocator) assignBay(ctx context.Context, tx *gorm.DB, partySize int, date, start string, duration float64, skip map[string]bool) (string, error) {
	for _, bay := range PreferredBays(partySize) {
		if skip[bay] {
			continue
		}
		free, err := a.isBayAvailable(ctx, tx, bay, date, start, duration, nil)
		if err != nil {
			return "", err
		}
		if free {
			return bay, nil
		}
	}
	return "", nil
}

// generateReservationID builds the next date-scoped id, e.g. BK251201001 for
// the first reservation of 2025-12-01. The max-scan is advisory; the primary
// key constraint catches the race and the caller retries with a fresh scan.
func (a *resourceAllocator) generateReservationID(ctx context.Context, date string) (string, error) {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", ErrInvalidDate
	}
	prefix := reservationIDPrefix + d.Format("060102")

	maxID, err := a.repo.FindMaxIDForPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan reservation ids: %w", err)
	}

	seq := 1
	if maxID != "" {
		n, err := strconv.Atoi(maxID[len(prefix):])
		if err != nil {
			return "", fmt.Errorf("malformed reservation id %q", maxID)
		}
		seq = n + 1
	}
	return fmt.Sprintf("%s%03d", prefix, seq), nil
}

func (a *resourceAllocator) CheckAvailability(ctx context.Context, date, startTime string, duration float64, partySize int) (*Availability, error) {
	if partySize > MaxPartySize {
		return nil, ErrPartyTooLarge
	}
	start, err := ParseTimeToStandard(startTime)
	if err != nil {
		return nil, err
	}
	bay, err := a.assignBay(ctx, a.repo.GetDB(), partySize, date, start, duration, nil)
	if err != nil {
		return nil, err
	}
	return &Availability{Available: bay != "", Bay: bay}, nil
}

func (a *resourceAllocator) CreateReservation(ctx context.Context, data CreateReservationData) (*models.Reservation, error) {
	if data.Name == "" || data.Date == "" || data.StartTime == "" ||
		data.Duration <= 0 || data.NumberOfPeople <= 0 {
		return nil, ErrMissingFields
	}
	if data.Phone == "" && data.Email == "" {
		return nil, ErrMissingFields
	}
	if data.NumberOfPeople > MaxPartySize {
		return nil, ErrPartyTooLarge
	}
	if _, err := time.Parse("2006-01-02", data.Date); err != nil {
		return nil, ErrInvalidDate
	}
	start, err := ParseTimeToStandard(data.StartTime)
	if err != nil {
		return nil, err
	}

	phone := data.Phone
	if phone == "" {
		// The phone column is NOT NULL; synthesize a value that can never be
		// mistaken for a real number.
		phone = placeholderPhone()
	}

	exhausted := map[string]bool{}

	for attempt := 1; attempt <= allocateRetryLimit; attempt++ {
		var created *models.Reservation
		var chosenBay string

		err := a.repo.Transaction(ctx, func(tx *gorm.DB) error {
			bay := data.Bay
			if bay != "" {
				// Explicit bay override: re-validate, never silently move
				free, err := a.isBayAvailable(ctx, tx, bay, data.Date, start, data.Duration, nil)
				if err != nil {
					return err
				}
				if !free {
					return ErrNoCapacity
				}
			} else {
				bay, err = a.assignBay(ctx, tx, data.NumberOfPeople, data.Date, start, data.Duration, exhausted)
				if err != nil {
					return err
				}
				if bay == "" {
					return ErrNoCapacity
				}
			}
			chosenBay = bay

			id, err := a.generateReservationID(ctx, data.Date)
			if err != nil {
				return err
			}

			reservation := &models.Reservation{
				ID:             id,
				CustomerID:     data.CustomerID,
				Name:           data.Name,
				PhoneNumber:    phone,
				Date:           data.Date,
				StartTime:      start,
				Duration:       data.Duration,
				NumberOfPeople: data.NumberOfPeople,
				Bay:            bay,
				Status:         models.StatusConfirmed,
				SourceChannel:  data.SourceChannel,
			}
			if data.Email != "" {
				reservation.Email = &data.Email
			}
			if data.ExternalKey != "" {
				reservation.ExternalKey = &data.ExternalKey
			}
			if data.Notes != "" {
				reservation.Notes = &data.Notes
			}

			if err := a.repo.Create(ctx, tx, reservation); err != nil {
				return err
			}
			created = reservation
			return nil
		})

		if err == nil {
			return created, nil
		}

		switch {
		case isExclusionViolation(err):
			// Lost the overlap race on that bay; an explicit bay has no
			// fallback, auto-assignment moves to the next preference
			if data.Bay != "" {
				return nil, ErrNoCapacity
			}
			log.Printf("[ResourceAllocator] bay %s taken concurrently (attempt %d/%d), trying next preference", chosenBay, attempt, allocateRetryLimit)
			exhausted[chosenBay] = true
			continue
		case isUniqueViolation(err):
			// Reservation id race: rescan and retry
			log.Printf("[ResourceAllocator] reservation id collision (attempt %d/%d)", attempt, allocateRetryLimit)
			continue
		default:
			return nil, err
		}
	}

	return nil, ErrNoCapacity
}

func (a *resourceAllocator) CancelReservation(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error) {
	reservation, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if reservation.Status == models.StatusCancelled {
		return nil, ErrNotFound
	}

	if err := a.repo.Cancel(ctx, a.repo.GetDB(), id, reason, cancelledBy); err != nil {
		return nil, fmt.Errorf("cancel reservation %s: %w", id, err)
	}

	reservation.Status = models.StatusCancelled
	reservation.CancellationReason = &reason
	reservation.CancelledBy = &cancelledBy
	return reservation, nil
}

func (a *resourceAllocator) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (a *resourceAllocator) FindByExternalKey(ctx context.Context, key string) (*models.Reservation, error) {
	reservation, err := a.repo.FindByExternalKey(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return reservation, nil
}

// FindByDetails locates a confirmed reservation at an exact date/time by
// contact details. Zero or multiple matches both return nil: ambiguity is
// never resolved by picking one.
func (a *resourceAllocator) FindByDetails(ctx context.Context, name, phone, email, date, startTime string, sourceChannel *string) (*models.Reservation, error) {
	start, err := ParseTimeToStandard(startTime)
	if err != nil {
		return nil, err
	}

	candidates, err := a.repo.FindConfirmedAt(ctx, date, start, sourceChannel)
	if err != nil {
		return nil, err
	}

	var matches []models.Reservation
	for _, r := range candidates {
		if detailsMatch(r, name, phone, email) {
			matches = append(matches, r)
		}
	}

	if len(matches) == 1 {
		return &matches[0], nil
	}
	if len(matches) > 1 {
		log.Printf("[ResourceAllocator] %d reservations match details at %s %s, refusing to pick one", len(matches), date, start)
	}
	return nil, nil
}

func detailsMatch(r models.Reservation, name, phone, email string) bool {
	if phone != "" && strings.Contains(r.PhoneNumber, phone) {
		return true
	}
	if email != "" && r.Email != nil && strings.EqualFold(*r.Email, email) {
		return true
	}
	if name != "" && strings.Contains(strings.ToLower(r.Name), strings.ToLower(name)) {
		return true
	}
	return false
}

func placeholderPhone() string {
	return fmt.Sprintf("%s%s%04d", placeholderPhoneMark, time.Now().Format("0102"), rand.Intn(10000))
}
