package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/practice-api/internal/models"
)

func TestPadAndRoundStartTimeCeilsToNextInterval(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 7, 0, 0, time.UTC)

	got := PadAndRoundStartTime(now, now, 0, 15)
	assert.Equal(t, time.Date(2026, 9, 10, 9, 15, 0, 0, time.UTC), got)

	got = PadAndRoundStartTime(now, now, 10, 15)
	assert.Equal(t, time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC), got)
}

func TestPadAndRoundStartTimeIsIdempotent(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 7, 0, 0, time.UTC)
	once := PadAndRoundStartTime(now, now, 10, 15)
	twice := PadAndRoundStartTime(now, once, 10, 15)
	assert.Equal(t, once, twice)
}

func TestPadAndRoundStartTimeBumpsSubMinuteRemainder(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 15, 30, 0, time.UTC)
	got := PadAndRoundStartTime(now, now, 0, 15)
	assert.Equal(t, time.Date(2026, 9, 10, 9, 30, 0, 0, time.UTC), got, "partial minute rounds up to the next interval, never down")
}

func TestPadAndRoundStartTimeSkipsRoundingWhenDisabled(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 7, 30, 0, time.UTC)
	got := PadAndRoundStartTime(now, now, 5, 0)
	assert.Equal(t, now.Add(5*time.Minute), got)
}

func TestPadAndRoundStartTimeKeepsLaterRawStart(t *testing.T) {
	now := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	raw := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	got := PadAndRoundStartTime(now, raw, 30, 15)
	assert.Equal(t, raw, got)
}

func TestLowestPriceProductForProfile(t *testing.T) {
	profile := models.PractitionerProfile{
		UserID: "prac-1",
		Products: []models.Product{
			{ID: "prod-1", UserID: "prac-1", Minutes: 30, Price: 80, IsActive: true, VerticalName: "Therapy"},
			{ID: "prod-2", UserID: "prac-1", Minutes: 60, Price: 50, IsActive: true, VerticalName: "Coaching"},
			{ID: "prod-3", UserID: "prac-1", Minutes: 45, Price: 50, IsActive: true, VerticalName: "Coaching"},
			{ID: "prod-4", UserID: "prac-1", Minutes: 30, Price: 10, IsActive: false},
		},
	}

	best := LowestPriceProductForProfile(profile, "")
	require.NotNil(t, best)
	assert.Equal(t, "prod-2", best.ID, "price ties keep catalog order")

	best = LowestPriceProductForProfile(profile, "Therapy")
	require.NotNil(t, best)
	assert.Equal(t, "prod-1", best.ID)

	assert.Nil(t, LowestPriceProductForProfile(profile, "Nutrition"))
}

func TestLowestPriceProductForProfileReturnsCopy(t *testing.T) {
	profile := models.PractitionerProfile{
		UserID:   "prac-1",
		Products: []models.Product{{ID: "prod-1", UserID: "prac-1", Minutes: 30, Price: 80, IsActive: true}},
	}
	best := LowestPriceProductForProfile(profile, "")
	require.NotNil(t, best)
	best.Price = 1
	assert.Equal(t, float64(80), profile.Products[0].Price)
}

type mockProductCatalog struct {
	products map[string]*models.Product
	calls    int
	err      error
}

func (m *mockProductCatalog) LowestPriceActive(_ context.Context, _ []string, _ string) (map[string]*models.Product, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

type mockIntroChecker struct {
	hadIntro bool
	calls    int
	err      error
}

func (m *mockIntroChecker) HasCareAdvocateIntro(_ context.Context, _ string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	return m.hadIntro, nil
}

func TestAvailabilityToolsLowestPriceProducts(t *testing.T) {
	catalog := &mockProductCatalog{products: map[string]*models.Product{
		"prac-1": {ID: "prod-1", UserID: "prac-1", Minutes: 30, Price: 50, IsActive: true},
	}}
	tools := NewAvailabilityTools(catalog, &mockIntroChecker{}, nil)

	products, err := tools.LowestPriceProducts(context.Background(), []string{"prac-1"}, "")
	require.NoError(t, err)
	require.Contains(t, products, "prac-1")
	assert.Equal(t, "prod-1", products["prac-1"].ID)

	products, err = tools.LowestPriceProducts(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, 1, catalog.calls, "empty id list must not hit the catalog")
}

func TestAvailabilityToolsHasHadCareAdvocateIntro(t *testing.T) {
	checker := &mockIntroChecker{hadIntro: true}
	tools := NewAvailabilityTools(&mockProductCatalog{}, checker, nil)

	had, err := tools.HasHadCareAdvocateIntro(context.Background(), "member-1")
	require.NoError(t, err)
	assert.True(t, had)

	had, err = tools.HasHadCareAdvocateIntro(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, had)
	assert.Equal(t, 1, checker.calls, "empty member id must not query")
}

func TestAvailabilityToolsWrapsErrors(t *testing.T) {
	tools := NewAvailabilityTools(
		&mockProductCatalog{err: errors.New("boom")},
		&mockIntroChecker{err: errors.New("boom")},
		nil,
	)

	_, err := tools.LowestPriceProducts(context.Background(), []string{"prac-1"}, "")
	require.Error(t, err)

	_, err = tools.HasHadCareAdvocateIntro(context.Background(), "member-1")
	require.Error(t, err)
}
