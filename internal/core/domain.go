package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	UnitWeek  IntervalUnit = "week"
	UnitMonth IntervalUnit = "month"
	UnitYear  IntervalUnit = "year"
)

// DefaultCategory is assigned when neither the user nor the extraction
// provided a category.
const DefaultCategory = "Other"

type (
	// IntervalUnit is the calendar unit of a recurrence interval.
	IntervalUnit string

	// Date is a calendar day. The time component is always midnight UTC;
	// every due-date comparison in the application happens in UTC.
	Date struct {
		time.Time
	}

	// Money is a currency amount in cents.
	Money struct {
		Cents int64
	}

	// RecurrenceInterval describes how far a recurring invoice advances
	// each cycle, e.g. {2, week} for "every two weeks".
	RecurrenceInterval struct {
		Count int
		Unit  IntervalUnit
	}

	// Invoice is a single bill owned by one user.
	Invoice struct {
		ID          string
		OwnerID     string
		Vendor      string
		Amount      Money
		DueDate     Date // zero when the document carried no due date
		Category    string
		IsRecurring bool
		Recurrence  *RecurrenceInterval
		CreatedAt   time.Time
	}

	// User holds the per-identity settings this backend manages.
	User struct {
		ID            string
		PushToken     string
		MonthlyBudget Money
	}
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyVendor         = errors.New("empty vendor")
	ErrInvalidInterval     = errors.New("invalid recurrence interval")
	ErrRecurrenceNoDueDate = errors.New("recurrence requires a due date")
	ErrRecurrenceMismatch  = errors.New("recurrence flag and interval out of sync")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty reports whether the date is absent (optional due dates).
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Display formats the date the way notification bodies and chart ranges
// show it, e.g. "Jan 2, 2006".
func (d Date) Display() string {
	return d.Format("Jan 2, 2006")
}

// ParseRecurrenceInterval parses the wire format "N-unit", e.g. "2-week".
func ParseRecurrenceInterval(s string) (RecurrenceInterval, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return RecurrenceInterval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	count, err := strconv.Atoi(parts[0])
	if err != nil {
		return RecurrenceInterval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	iv := RecurrenceInterval{Count: count, Unit: IntervalUnit(parts[1])}
	if err := iv.Validate(); err != nil {
		return RecurrenceInterval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return iv, nil
}

// String returns the wire format "N-unit".
func (iv RecurrenceInterval) String() string {
	return strconv.Itoa(iv.Count) + "-" + string(iv.Unit)
}

func (iv RecurrenceInterval) Validate() error {
	if iv.Count < 1 {
		return ErrInvalidInterval
	}
	switch iv.Unit {
	case UnitWeek, UnitMonth, UnitYear:
		return nil
	default:
		return ErrInvalidInterval
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (inv Invoice) Validate() error {
	if strings.TrimSpace(inv.Vendor) == "" {
		return ErrEmptyVendor
	}
	if len(inv.Vendor) > 200 {
		return errors.New("vendor too long (max 200 characters)")
	}
	if err := inv.Amount.Validate(); err != nil {
		return err
	}
	return inv.validateRecurrence()
}

// validateRecurrence enforces the invariant that the interval is present
// exactly when the recurring flag is set, and never without a due date.
func (inv Invoice) validateRecurrence() error {
	if inv.IsRecurring != (inv.Recurrence != nil) {
		return ErrRecurrenceMismatch
	}
	if inv.IsRecurring {
		if inv.DueDate.IsEmpty() {
			return ErrRecurrenceNoDueDate
		}
		if err := inv.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}
