package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"
)

// SlotOccupancy returns the total visitor count already booked for a
// date + time slot.
func (d *Database) SlotOccupancy(ctx context.Context, date, timeSlot string) (int, error) {
	var occupancy int
	err := d.db.QueryRowContext(ctx, selectSlotOccupancyQuery, date, timeSlot).Scan(&occupancy)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot occupancy: %w", err)
	}
	return occupancy, nil
}

// CreateBooking inserts a booking after re-checking capacity inside the same
// transaction. Returns a capacity-conflict error carrying the remaining count
// when occupancy + visitors would exceed capacity.
func (d *Database) CreateBooking(ctx context.Context, booking *models.Booking, capacity int) error {
	now := time.Now().UTC()
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		var occupancy int
		if err := tx.QueryRowContext(ctx, selectSlotOccupancyQuery, booking.Date, booking.TimeSlot).Scan(&occupancy); err != nil {
			return fmt.Errorf("failed to check slot occupancy: %w", err)
		}

		if occupancy+booking.Visitors > capacity {
			remaining := capacity - occupancy
			if remaining < 0 {
				remaining = 0
			}
			return apperrors.NewCapacityError(booking.TimeSlot, remaining)
		}

		result, err := tx.ExecContext(ctx, insertBookingQuery,
			booking.UserID, booking.Date, booking.TimeSlot, booking.Visitors,
			booking.Amount, booking.Currency, string(booking.PaymentStatus),
			string(booking.PaymentMethod), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		booking.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get booking id: %w", err)
		}
		booking.CreatedAt = now
		return nil
	})
	return err
}
