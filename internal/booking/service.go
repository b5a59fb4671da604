// Package booking is the inventory collaborator for the conversation core:
// slot capacity lookups plus booking creation with an authoritative capacity
// re-check at insert time.
package booking

import (
	"context"
	"fmt"

	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"

	"github.com/sirupsen/logrus"
)

// TimeSlots lists the bookable slots in presentation order.
var TimeSlots = []string{
	"9AM–10AM",
	"10AM–11AM",
	"11AM–12PM",
	"1PM–2PM",
	"2PM–3PM",
	"3PM–4PM",
}

// SlotCapacity maps each slot to its maximum visitor count.
var SlotCapacity = map[string]int{
	"9AM–10AM":  20,
	"10AM–11AM": 25,
	"11AM–12PM": 25,
	"1PM–2PM":   30,
	"2PM–3PM":   30,
	"3PM–4PM":   20,
}

const defaultCapacity = 20

// Store is the persistence surface the inventory service needs.
type Store interface {
	SlotOccupancy(ctx context.Context, date, timeSlot string) (int, error)
	CreateBooking(ctx context.Context, booking *models.Booking, capacity int) error
}

type Service struct {
	store       Store
	ticketPrice float64
	currency    string
	logger      *logrus.Logger
}

func NewService(store Store, ticketPrice float64, currency string, logger *logrus.Logger) *Service {
	return &Service{
		store:       store,
		ticketPrice: ticketPrice,
		currency:    currency,
		logger:      logger,
	}
}

// IsValidSlot reports whether timeSlot is a configured slot.
func IsValidSlot(timeSlot string) bool {
	_, ok := SlotCapacity[timeSlot]
	return ok
}

// CapacityFor returns the configured capacity for a slot.
func CapacityFor(timeSlot string) int {
	if capacity, ok := SlotCapacity[timeSlot]; ok {
		return capacity
	}
	return defaultCapacity
}

// Availability returns occupancy for every configured slot on a date,
// in presentation order.
func (s *Service) Availability(ctx context.Context, date string) ([]models.SlotAvailability, error) {
	slots := make([]models.SlotAvailability, 0, len(TimeSlots))
	for _, slot := range TimeSlots {
		avail, err := s.SlotAvailability(ctx, date, slot)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *avail)
	}
	return slots, nil
}

// SlotAvailability returns occupancy for one slot on a date.
func (s *Service) SlotAvailability(ctx context.Context, date, timeSlot string) (*models.SlotAvailability, error) {
	booked, err := s.store.SlotOccupancy(ctx, date, timeSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to get occupancy for %s %s: %w", date, timeSlot, err)
	}

	capacity := CapacityFor(timeSlot)
	remaining := capacity - booked
	if remaining < 0 {
		remaining = 0
	}
	return &models.SlotAvailability{
		TimeSlot:  timeSlot,
		Capacity:  capacity,
		Booked:    booked,
		Remaining: remaining,
		IsFull:    booked >= capacity,
	}, nil
}

// CreateBooking creates a booking record for the slot, re-validating capacity
// at insert time. A capacity conflict is returned as a structured rejection
// carrying the remaining count, not as an internal fault.
func (s *Service) CreateBooking(ctx context.Context, userID int64, date, timeSlot string, visitors int, method models.PaymentMethod) (*models.Booking, error) {
	if !IsValidSlot(timeSlot) {
		return nil, apperrors.NewValidationError("time_slot", timeSlot, "unknown time slot")
	}

	b := &models.Booking{
		UserID:        userID,
		Date:          date,
		TimeSlot:      timeSlot,
		Visitors:      visitors,
		Amount:        float64(visitors) * s.ticketPrice,
		Currency:      s.currency,
		PaymentMethod: method,
		PaymentStatus: models.PaymentStatusPending,
	}
	if method == models.PaymentMethodCash {
		b.PaymentStatus = models.PaymentStatusCashPending
	}

	if err := s.store.CreateBooking(ctx, b, CapacityFor(timeSlot)); err != nil {
		if apperrors.IsCapacityConflict(err) {
			s.logger.WithFields(logrus.Fields{
				"date":     date,
				"timeSlot": timeSlot,
				"visitors": visitors,
			}).Info("Booking rejected, slot capacity exhausted")
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bookingId": b.ID,
		"date":      date,
		"timeSlot":  timeSlot,
		"visitors":  visitors,
	}).Info("Booking created")
	return b, nil
}

// TicketPrice returns the configured per-visitor price.
func (s *Service) TicketPrice() float64 {
	return s.ticketPrice
}
