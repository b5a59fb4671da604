package database

import (
	"context"
	"testing"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	b := &models.Booking{
		UserID:        1,
		Date:          "2026-09-01",
		TimeSlot:      "9AM–10AM",
		Visitors:      4,
		Amount:        400,
		Currency:      "USD",
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodOnline,
	}
	require.NoError(t, db.CreateBooking(ctx, b, 20))
	assert.NotZero(t, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	occupancy, err := db.SlotOccupancy(ctx, "2026-09-01", "9AM–10AM")
	require.NoError(t, err)
	assert.Equal(t, 4, occupancy)
}

func TestSlotOccupancyEmpty(t *testing.T) {
	db := setupTestDatabase(t)

	occupancy, err := db.SlotOccupancy(context.Background(), "2026-09-01", "9AM–10AM")
	require.NoError(t, err)
	assert.Equal(t, 0, occupancy)
}

func TestCreateBookingCapacityConflict(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	first := &models.Booking{
		UserID:        1,
		Date:          "2026-09-02",
		TimeSlot:      "9AM–10AM",
		Visitors:      15,
		Amount:        1500,
		Currency:      "USD",
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodOnline,
	}
	require.NoError(t, db.CreateBooking(ctx, first, 20))

	// 15 of 20 seats taken; a 10-visitor booking must be rejected with the
	// remaining count.
	second := &models.Booking{
		UserID:        2,
		Date:          "2026-09-02",
		TimeSlot:      "9AM–10AM",
		Visitors:      10,
		Amount:        1000,
		Currency:      "USD",
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodOnline,
	}
	err := db.CreateBooking(ctx, second, 20)
	require.Error(t, err)
	assert.True(t, apperrors.IsCapacityConflict(err))
	assert.Equal(t, 5, apperrors.CapacityRemaining(err))
	assert.Zero(t, second.ID)

	// The rejected booking left no row behind.
	occupancy, err := db.SlotOccupancy(ctx, "2026-09-02", "9AM–10AM")
	require.NoError(t, err)
	assert.Equal(t, 15, occupancy)
}

func TestCreateBookingExactlyFillsSlot(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	first := &models.Booking{
		UserID: 1, Date: "2026-09-03", TimeSlot: "3PM–4PM", Visitors: 15,
		Amount: 1500, Currency: "USD",
		PaymentStatus: models.PaymentStatusPending, PaymentMethod: models.PaymentMethodOnline,
	}
	require.NoError(t, db.CreateBooking(ctx, first, 20))

	second := &models.Booking{
		UserID: 2, Date: "2026-09-03", TimeSlot: "3PM–4PM", Visitors: 5,
		Amount: 500, Currency: "USD",
		PaymentStatus: models.PaymentStatusPending, PaymentMethod: models.PaymentMethodCash,
	}
	require.NoError(t, db.CreateBooking(ctx, second, 20))

	third := &models.Booking{
		UserID: 3, Date: "2026-09-03", TimeSlot: "3PM–4PM", Visitors: 1,
		Amount: 100, Currency: "USD",
		PaymentStatus: models.PaymentStatusPending, PaymentMethod: models.PaymentMethodOnline,
	}
	err := db.CreateBooking(ctx, third, 20)
	require.Error(t, err)
	assert.Equal(t, 0, apperrors.CapacityRemaining(err))
}
