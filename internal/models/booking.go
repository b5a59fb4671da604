package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "pending"
	PaymentStatusCashPending PaymentStatus = "cash_pending"
	PaymentStatusPaid        PaymentStatus = "paid"
	PaymentStatusFailed      PaymentStatus = "failed"
	PaymentStatusRefunded    PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCash   PaymentMethod = "cash"
)

// Booking is a confirmed visit reservation for a date and time slot.
type Booking struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	Date          string        `json:"date"` // ISO date, YYYY-MM-DD
	TimeSlot      string        `json:"timeSlot"`
	Visitors      int           `json:"visitors"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// SlotAvailability describes remaining capacity for one time slot on a date.
type SlotAvailability struct {
	TimeSlot  string `json:"timeSlot"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	IsFull    bool   `json:"isFull"`
}
