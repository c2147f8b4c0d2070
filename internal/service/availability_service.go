package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carebridge/practice-api/internal/dto"
	"github.com/carebridge/practice-api/internal/models"
	appErrors "github.com/carebridge/practice-api/pkg/errors"
)

type practitionerProfileFetcher interface {
	ListProfiles(ctx context.Context, userIDs []string) ([]models.PractitionerProfile, error)
}

// AvailabilityService is the entry point callers use. It validates request
// payloads, loads practitioner profiles, delegates to the calculators, and
// layers caching and metrics around the date-availability view.
type AvailabilityService struct {
	mass          *MassAvailabilityCalculator
	practitioners practitionerProfileFetcher
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	cacheTTL      time.Duration
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(
	mass *MassAvailabilityCalculator,
	practitioners practitionerProfileFetcher,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		mass:          mass,
		practitioners: practitioners,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		cacheTTL:      cacheTTL,
	}
}

// MassAvailability returns merged contiguous availability per practitioner.
func (s *AvailabilityService) MassAvailability(ctx context.Context, req dto.MassAvailabilityRequest) ([]models.PotentialMassAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mass availability payload")
	}
	profiles, err := s.loadProfiles(ctx, req.PractitionerIDs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.mass.GetMassAvailability(ctx, profiles, req.StartTime, req.EndTime, req.MemberID)
	s.metrics.ObserveCalculation("mass_availability", time.Since(start))
	return results, err
}

// PractitionerAvailabilities returns raw slots for every requested
// practitioner, including those with none.
func (s *AvailabilityService) PractitionerAvailabilities(ctx context.Context, req dto.PractitionerAvailabilitiesRequest) ([]models.PotentialPractitionerAvailabilities, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid practitioner availabilities payload")
	}
	profiles, err := s.loadProfiles(ctx, req.PractitionerIDs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.mass.GetPractitionerAvailabilities(ctx, profiles, req.StartTime, req.EndTime, req.Limit, req.Offset, req.VerticalName, req.MemberID, req.ContractPriority)
	s.metrics.ObserveCalculation("practitioner_availabilities", time.Since(start))
	return results, err
}

// AvailableDates answers the calendar-dots view, serving from cache when a
// fresh payload exists for the same parameters.
func (s *AvailabilityService) AvailableDates(ctx context.Context, req dto.AvailableDatesRequest) ([]models.DateAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid available dates payload")
	}

	key := availableDatesCacheKey(req)
	var cached []models.DateAvailability
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	profiles, err := s.loadProfiles(ctx, req.PractitionerIDs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := s.mass.GetPractitionerAvailableDates(ctx, profiles, req.StartTime, req.EndTime, req.MemberID, req.VerticalName, req.MemberTimezone)
	s.metrics.ObserveCalculation("available_dates", time.Since(start))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache available dates", zap.String("key", key), zap.Error(err))
	}
	return results, nil
}

// WarmAvailableDates precomputes the anonymous available-dates payload for a
// batch of practitioners so interactive requests hit the cache.
func (s *AvailabilityService) WarmAvailableDates(ctx context.Context, practitionerIDs []string, startTime, endTime time.Time, verticalName string) error {
	if len(practitionerIDs) == 0 {
		return nil
	}
	_, err := s.AvailableDates(ctx, dto.AvailableDatesRequest{
		PractitionerIDs: practitionerIDs,
		StartTime:       startTime,
		EndTime:         endTime,
		VerticalName:    verticalName,
	})
	return err
}

// InvalidateAvailability drops cached payloads touching the practitioner,
// e.g. after a booking or a calendar edit.
func (s *AvailabilityService) InvalidateAvailability(ctx context.Context, practitionerID string) error {
	return s.cache.Invalidate(ctx, fmt.Sprintf("availability:dates:*%s*", practitionerID))
}

func (s *AvailabilityService) loadProfiles(ctx context.Context, practitionerIDs []string) ([]models.PractitionerProfile, error) {
	profiles, err := s.practitioners.ListProfiles(ctx, practitionerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load practitioner profiles")
	}
	return profiles, nil
}

func availableDatesCacheKey(req dto.AvailableDatesRequest) string {
	ids := make([]string, len(req.PractitionerIDs))
	copy(ids, req.PractitionerIDs)
	sort.Strings(ids)
	return fmt.Sprintf("availability:dates:%s:%d:%d:%s:%s:%s",
		strings.Join(ids, ","),
		req.StartTime.Unix(),
		req.EndTime.Unix(),
		req.MemberID,
		req.VerticalName,
		req.MemberTimezone,
	)
}
