// Package dialogue implements the 4-step booking wizard layered over session
// context: select_date -> select_time -> select_visitors -> confirm_booking.
// Steps only move forward; an explicit restart resets to select_date, and
// missing state degrades to a restart rather than an error.
package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"museumhub/internal/booking"
	"museumhub/internal/constants"
	apperrors "museumhub/internal/errors"
	"museumhub/internal/models"

	"github.com/sirupsen/logrus"
)

type Step string

const (
	StepSelectDate     Step = "select_date"
	StepSelectTime     Step = "select_time"
	StepSelectVisitors Step = "select_visitors"
	StepConfirmBooking Step = "confirm_booking"
)

// Wizard actions carried in request payloads.
const (
	ActionStartBooking   = "start_booking"
	ActionSelectDate     = "select_date"
	ActionSelectTime     = "select_time"
	ActionSelectVisitors = "select_visitors"
	ActionConfirmAndPay  = "confirm_and_pay"
)

// BookingContext is the typed wizard state stored under the session's
// "booking" context key.
type BookingContext struct {
	Step     Step   `json:"step"`
	Date     string `json:"date,omitempty"`
	TimeSlot string `json:"timeSlot,omitempty"`
	Visitors int    `json:"visitors,omitempty"`
}

// Request is one inbound wizard turn, decoded from the channel payload.
type Request struct {
	Message     string `json:"message"`
	Action      string `json:"action,omitempty"`
	Date        string `json:"date,omitempty"`
	TimeSlot    string `json:"time_slot,omitempty"`
	Visitors    int    `json:"visitors,omitempty"`
	PaymentType string `json:"payment_type,omitempty"`
}

// Button is a quick-reply option presented with a wizard reply.
type Button struct {
	Text   string `json:"text"`
	Action string `json:"action"`
	Value  string `json:"value,omitempty"`
}

// Reply is the wizard's answer for one turn. Handled=false means the turn
// carried no wizard action and the caller should fall back to the responder.
type Reply struct {
	Handled       bool            `json:"-"`
	Text          string          `json:"response"`
	Step          Step            `json:"step,omitempty"`
	Buttons       []Button        `json:"buttons,omitempty"`
	RequiresLogin bool            `json:"requiresLogin,omitempty"`
	Booking       *models.Booking `json:"booking,omitempty"`
}

// Engine advances wizard state against the booking inventory.
type Engine struct {
	inventory *booking.Service
	logger    *logrus.Logger
}

func NewEngine(inventory *booking.Service, logger *logrus.Logger) *Engine {
	return &Engine{inventory: inventory, logger: logger}
}

// loadState decodes the session's wizard state; ok=false when absent or
// unreadable (either way the wizard restarts cleanly).
func loadState(session *models.Session) (BookingContext, bool) {
	raw, ok := session.GetContext(models.ContextKeyBooking)
	if !ok {
		return BookingContext{}, false
	}
	var state BookingContext
	if err := json.Unmarshal(raw, &state); err != nil || state.Step == "" {
		return BookingContext{}, false
	}
	return state, true
}

// contextUpdate serializes the new wizard state as a context merge; a nil
// state clears the booking key entirely.
func contextUpdate(state *BookingContext) models.SessionContext {
	if state == nil {
		return models.SessionContext{models.ContextKeyBooking: nil}
	}
	raw, _ := json.Marshal(state)
	return models.SessionContext{models.ContextKeyBooking: raw}
}

// Advance runs one wizard turn. It returns the reply plus the context merge
// to apply to the session (nil when the turn changed nothing). A turn with no
// wizard action returns Handled=false and leaves the state untouched.
func (e *Engine) Advance(ctx context.Context, session *models.Session, req Request) (*Reply, models.SessionContext, error) {
	state, hasState := loadState(session)

	switch {
	case req.Action == ActionStartBooking:
		return e.startBooking(session)

	case req.Action == ActionSelectDate || (hasState && state.Step == StepSelectDate && req.Date != ""):
		return e.selectDate(ctx, state, req)

	case req.Action == ActionSelectTime || (hasState && state.Step == StepSelectTime && req.TimeSlot != ""):
		if !hasState {
			return e.restart("Let's start your booking from the beginning.")
		}
		return e.selectTime(ctx, state, req)

	case req.Action == ActionSelectVisitors || (hasState && state.Step == StepSelectVisitors && req.Visitors != 0):
		if !hasState {
			return e.restart("Let's start your booking from the beginning.")
		}
		return e.selectVisitors(state, req)

	case req.Action == ActionConfirmAndPay:
		if !hasState {
			return e.restart("Booking information incomplete. Let's start over.")
		}
		return e.confirmAndPay(ctx, session, state, req)
	}

	return &Reply{Handled: false}, nil, nil
}

func (e *Engine) startBooking(session *models.Session) (*Reply, models.SessionContext, error) {
	if session.UserID == nil {
		return &Reply{
			Handled:       true,
			Text:          "You need to be logged in to book tickets. Please log in first, then I can help you complete your booking!",
			RequiresLogin: true,
		}, nil, nil
	}

	state := BookingContext{Step: StepSelectDate}
	today := time.Now().UTC()
	tomorrow := today.AddDate(0, 0, 1)
	nextWeek := today.AddDate(0, 0, 7)

	return &Reply{
		Handled: true,
		Text:    "Great! Let's book your ticket step by step.\n\nStep 1: Select Date\n\nWhen would you like to visit?",
		Step:    StepSelectDate,
		Buttons: []Button{
			{Text: fmt.Sprintf("Today (%s)", today.Format("Jan 2")), Action: ActionSelectDate, Value: "today"},
			{Text: fmt.Sprintf("Tomorrow (%s)", tomorrow.Format("Jan 2")), Action: ActionSelectDate, Value: "tomorrow"},
			{Text: fmt.Sprintf("Next Week (%s)", nextWeek.Format("Jan 2")), Action: ActionSelectDate, Value: nextWeek.Format("2006-01-02")},
		},
	}, contextUpdate(&state), nil
}

func (e *Engine) restart(text string) (*Reply, models.SessionContext, error) {
	state := BookingContext{Step: StepSelectDate}
	return &Reply{
		Handled: true,
		Text:    text + "\n\nStep 1: Select Date\n\nWhen would you like to visit?",
		Step:    StepSelectDate,
		Buttons: []Button{
			{Text: "Today", Action: ActionSelectDate, Value: "today"},
			{Text: "Tomorrow", Action: ActionSelectDate, Value: "tomorrow"},
		},
	}, contextUpdate(&state), nil
}

func (e *Engine) selectDate(ctx context.Context, state BookingContext, req Request) (*Reply, models.SessionContext, error) {
	if req.Date == "" {
		return &Reply{Handled: true, Text: "Please select a date to continue.", Step: StepSelectDate}, nil, nil
	}

	target, err := resolveDate(req.Date, time.Now().UTC())
	if err != nil {
		return &Reply{
			Handled: true,
			Text:    "I couldn't read that date. Please use YYYY-MM-DD, or pick today or tomorrow.",
			Step:    StepSelectDate,
		}, nil, nil
	}

	slots, err := e.inventory.Availability(ctx, target.Format("2006-01-02"))
	if err != nil {
		return nil, nil, err
	}

	var buttons []Button
	for _, slot := range slots {
		if slot.IsFull {
			continue
		}
		buttons = append(buttons, Button{
			Text:   fmt.Sprintf("%s (%d spots)", slot.TimeSlot, slot.Remaining),
			Action: ActionSelectTime,
			Value:  slot.TimeSlot,
		})
	}

	// Every slot full: stay on date selection with alternate suggestions.
	if len(buttons) == 0 {
		return &Reply{
			Handled: true,
			Text:    fmt.Sprintf("All slots are full for %s.\n\nWould you like to try another date?", target.Format("January 2, 2006")),
			Step:    StepSelectDate,
			Buttons: []Button{
				{Text: "Try Tomorrow", Action: ActionSelectDate, Value: "tomorrow"},
				{Text: "Try Next Week", Action: ActionSelectDate, Value: target.AddDate(0, 0, 7).Format("2006-01-02")},
				{Text: "Start Over", Action: ActionStartBooking},
			},
		}, nil, nil
	}

	state.Date = target.Format("2006-01-02")
	state.Step = StepSelectTime
	return &Reply{
		Handled: true,
		Text:    fmt.Sprintf("Date selected: %s\n\nStep 2: Select Time Slot\n\nAvailable time slots:", target.Format("January 2, 2006")),
		Step:    StepSelectTime,
		Buttons: buttons,
	}, contextUpdate(&state), nil
}

func (e *Engine) selectTime(ctx context.Context, state BookingContext, req Request) (*Reply, models.SessionContext, error) {
	if req.TimeSlot == "" {
		return &Reply{Handled: true, Text: "Please select a time slot to continue.", Step: StepSelectTime}, nil, nil
	}
	if !booking.IsValidSlot(req.TimeSlot) {
		return &Reply{Handled: true, Text: "That's not one of our time slots. Please pick one of the offered slots.", Step: StepSelectTime}, nil, nil
	}

	avail, err := e.inventory.SlotAvailability(ctx, state.Date, req.TimeSlot)
	if err != nil {
		return nil, nil, err
	}
	if avail.IsFull {
		return &Reply{
			Handled: true,
			Text:    fmt.Sprintf("Sorry, %s just filled up. Please pick another slot.", req.TimeSlot),
			Step:    StepSelectTime,
			Buttons: []Button{{Text: "Show Available Slots", Action: ActionSelectDate, Value: state.Date}},
		}, nil, nil
	}

	state.TimeSlot = req.TimeSlot
	state.Step = StepSelectVisitors
	return &Reply{
		Handled: true,
		Text:    fmt.Sprintf("Time slot selected: %s\n\nStep 3: Number of Visitors\n\nHow many visitors? (Maximum %d per booking)", req.TimeSlot, constants.MaxVisitors),
		Step:    StepSelectVisitors,
		Buttons: visitorButtons(),
	}, contextUpdate(&state), nil
}

func (e *Engine) selectVisitors(state BookingContext, req Request) (*Reply, models.SessionContext, error) {
	if req.Visitors < constants.MinVisitors || req.Visitors > constants.MaxVisitors {
		return &Reply{
			Handled: true,
			Text:    fmt.Sprintf("Please select between %d and %d visitors.", constants.MinVisitors, constants.MaxVisitors),
			Step:    StepSelectVisitors,
			Buttons: visitorButtons(),
		}, nil, nil
	}

	state.Visitors = req.Visitors
	state.Step = StepConfirmBooking
	amount := float64(req.Visitors) * e.inventory.TicketPrice()

	displayDate := state.Date
	if t, err := time.Parse("2006-01-02", state.Date); err == nil {
		displayDate = t.Format("January 2, 2006")
	}

	return &Reply{
		Handled: true,
		Text: fmt.Sprintf("Booking Summary\n\nDate: %s\nTime Slot: %s\nVisitors: %d\nTotal Amount: %.2f\n\nStep 4: Confirm & Pay\n\nReady to confirm your booking?",
			displayDate, state.TimeSlot, req.Visitors, amount),
		Step: StepConfirmBooking,
		Buttons: []Button{
			{Text: "Pay Online Now", Action: ActionConfirmAndPay, Value: "online"},
			{Text: "Pay Later (Cash)", Action: ActionConfirmAndPay, Value: "cash"},
			{Text: "Edit Booking", Action: ActionStartBooking},
		},
	}, contextUpdate(&state), nil
}

func (e *Engine) confirmAndPay(ctx context.Context, session *models.Session, state BookingContext, req Request) (*Reply, models.SessionContext, error) {
	if state.Date == "" || state.TimeSlot == "" || state.Visitors == 0 {
		return e.restart("Booking information incomplete. Let's start over.")
	}
	if session.UserID == nil {
		return &Reply{
			Handled:       true,
			Text:          "You need to be logged in to confirm a booking.",
			RequiresLogin: true,
		}, nil, nil
	}

	method := models.PaymentMethodOnline
	if strings.EqualFold(req.PaymentType, "cash") {
		method = models.PaymentMethodCash
	}

	created, err := e.inventory.CreateBooking(ctx, *session.UserID, state.Date, state.TimeSlot, state.Visitors, method)
	if err != nil {
		// The authoritative capacity re-check failed: drop back to time
		// selection instead of failing the conversation.
		if apperrors.IsCapacityConflict(err) {
			remaining := apperrors.CapacityRemaining(err)
			state.Step = StepSelectTime
			state.TimeSlot = ""
			return &Reply{
				Handled: true,
				Text:    fmt.Sprintf("Sorry! Only %d spot(s) available for that slot now.\n\nWould you like to choose a different time slot?", remaining),
				Step:    StepSelectTime,
				Buttons: []Button{
					{Text: "Choose Different Slot", Action: ActionSelectDate, Value: state.Date},
					{Text: "Start Over", Action: ActionStartBooking},
				},
			}, contextUpdate(&state), nil
		}
		return nil, nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"bookingId": created.ID,
		"sessionId": session.SessionID,
	}).Info("Booking confirmed via dialogue")

	text := fmt.Sprintf("Booking Confirmed!\n\nBooking ID: #%d\nDate: %s\nTime Slot: %s\nVisitors: %d\nAmount: %.2f",
		created.ID, state.Date, state.TimeSlot, state.Visitors, created.Amount)
	if method == models.PaymentMethodCash {
		text += "\nPayment: Cash at Museum\n\nBring exact cash and show your Booking ID at the entrance."
	} else {
		text += "\n\nComplete your payment online to finalize the booking."
	}

	// Wizard done: remove the booking state from the session entirely.
	return &Reply{
		Handled: true,
		Text:    text,
		Booking: created,
	}, contextUpdate(nil), nil
}

func visitorButtons() []Button {
	buttons := make([]Button, 0, 5)
	for i := 1; i <= 5; i++ {
		label := "Visitors"
		if i == 1 {
			label = "Visitor"
		}
		buttons = append(buttons, Button{
			Text:   fmt.Sprintf("%d %s", i, label),
			Action: ActionSelectVisitors,
			Value:  strconv.Itoa(i),
		})
	}
	return buttons
}

// resolveDate accepts today, tomorrow or an ISO calendar date.
func resolveDate(value string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}
