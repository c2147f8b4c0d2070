package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/carebridge/practice-api/internal/models"
	appErrors "github.com/carebridge/practice-api/pkg/errors"
)

// PadAndRoundStartTime pushes rawStart to at least now plus the booking
// buffer, then ceiling-rounds the result to the next multiple of
// roundingMinutes within the hour. Already-rounded times pass through
// unchanged, so re-rounding is a no-op. roundingMinutes is expected to divide
// 60 evenly; non-positive values skip rounding.
func PadAndRoundStartTime(now, rawStart time.Time, bookingBufferMinutes, roundingMinutes int) time.Time {
	padded := now.Add(time.Duration(bookingBufferMinutes) * time.Minute)
	if rawStart.After(padded) {
		padded = rawStart
	}
	if roundingMinutes <= 0 {
		return padded
	}
	if padded.Second() != 0 || padded.Nanosecond() != 0 {
		padded = padded.Truncate(time.Minute).Add(time.Minute)
	}
	if rem := padded.Minute() % roundingMinutes; rem != 0 {
		padded = padded.Add(time.Duration(roundingMinutes-rem) * time.Minute)
	}
	return padded
}

// LowestPriceProductForProfile selects the cheapest bookable product from the
// profile's already-loaded catalog, optionally restricted to a vertical.
// Price ties keep the catalog's ordering. Returns nil when nothing qualifies.
func LowestPriceProductForProfile(profile models.PractitionerProfile, verticalName string) *models.Product {
	var best *models.Product
	for i := range profile.Products {
		p := &profile.Products[i]
		if !p.Bookable() {
			continue
		}
		if verticalName != "" && p.VerticalName != verticalName {
			continue
		}
		if best == nil || p.Price < best.Price {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	product := *best
	return &product
}

type lowestPriceProductFetcher interface {
	LowestPriceActive(ctx context.Context, practitionerIDs []string, verticalName string) (map[string]*models.Product, error)
}

type introAppointmentChecker interface {
	HasCareAdvocateIntro(ctx context.Context, memberID string) (bool, error)
}

// AvailabilityTools answers product and intro-history questions the
// calculators need, batched where possible.
type AvailabilityTools struct {
	products     lowestPriceProductFetcher
	appointments introAppointmentChecker
	logger       *zap.Logger
}

// NewAvailabilityTools constructs the tools service.
func NewAvailabilityTools(products lowestPriceProductFetcher, appointments introAppointmentChecker, logger *zap.Logger) *AvailabilityTools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityTools{products: products, appointments: appointments, logger: logger}
}

// LowestPriceProducts returns each practitioner's cheapest bookable product in
// one catalog query. Practitioners with no qualifying product are absent.
func (t *AvailabilityTools) LowestPriceProducts(ctx context.Context, practitionerIDs []string, verticalName string) (map[string]*models.Product, error) {
	if len(practitionerIDs) == 0 {
		return map[string]*models.Product{}, nil
	}
	products, err := t.products.LowestPriceActive(ctx, practitionerIDs, verticalName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lowest price products")
	}
	return products, nil
}

// HasHadCareAdvocateIntro reports whether the member has ever had an intro
// appointment with a Care Advocate. An empty member id means no member, which
// never counts as having had one.
func (t *AvailabilityTools) HasHadCareAdvocateIntro(ctx context.Context, memberID string) (bool, error) {
	if memberID == "" {
		return false, nil
	}
	had, err := t.appointments.HasCareAdvocateIntro(ctx, memberID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check intro appointment history")
	}
	return had, nil
}
