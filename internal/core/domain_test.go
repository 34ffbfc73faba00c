package core

import (
	"errors"
	"testing"
	"time"
)

func validInvoice() Invoice {
	return Invoice{
		ID:       "inv-1",
		OwnerID:  "user-1",
		Vendor:   "Netflix",
		Amount:   Money{Cents: 64900},
		Category: DefaultCategory,
	}
}

func TestInvoice_Validate(t *testing.T) {
	monthly := &RecurrenceInterval{Count: 1, Unit: UnitMonth}

	tests := []struct {
		name    string
		mutate  func(*Invoice)
		wantErr error
	}{
		{"valid minimal", func(inv *Invoice) {}, nil},
		{
			"valid recurring",
			func(inv *Invoice) {
				inv.DueDate = NewDate(2025, 9, 1)
				inv.IsRecurring = true
				inv.Recurrence = monthly
			},
			nil,
		},
		{"empty vendor", func(inv *Invoice) { inv.Vendor = "  " }, ErrEmptyVendor},
		{"negative amount", func(inv *Invoice) { inv.Amount.Cents = -1 }, ErrInvalidAmount},
		{
			"recurring without interval",
			func(inv *Invoice) {
				inv.DueDate = NewDate(2025, 9, 1)
				inv.IsRecurring = true
			},
			ErrRecurrenceMismatch,
		},
		{
			"interval without flag",
			func(inv *Invoice) {
				inv.DueDate = NewDate(2025, 9, 1)
				inv.Recurrence = monthly
			},
			ErrRecurrenceMismatch,
		},
		{
			"recurring without due date",
			func(inv *Invoice) {
				inv.IsRecurring = true
				inv.Recurrence = monthly
			},
			ErrRecurrenceNoDueDate,
		},
		{
			"recurring with bad interval",
			func(inv *Invoice) {
				inv.DueDate = NewDate(2025, 9, 1)
				inv.IsRecurring = true
				inv.Recurrence = &RecurrenceInterval{Count: 0, Unit: UnitWeek}
			},
			ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvoice()
			tt.mutate(&inv)
			err := inv.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRecurrenceInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    RecurrenceInterval
		wantErr bool
	}{
		{"1-week", RecurrenceInterval{1, UnitWeek}, false},
		{"3-month", RecurrenceInterval{3, UnitMonth}, false},
		{"1-year", RecurrenceInterval{1, UnitYear}, false},
		{" 2-week ", RecurrenceInterval{2, UnitWeek}, false},
		{"week", RecurrenceInterval{}, true},
		{"0-month", RecurrenceInterval{}, true},
		{"x-month", RecurrenceInterval{}, true},
		{"1-day", RecurrenceInterval{}, true},
		{"", RecurrenceInterval{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRecurrenceInterval(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("expected ErrInvalidInterval, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecurrenceInterval_RoundTrip(t *testing.T) {
	iv := RecurrenceInterval{Count: 2, Unit: UnitWeek}
	got, err := ParseRecurrenceInterval(iv.String())
	if err != nil {
		t.Fatalf("round trip error: %v", err)
	}
	if got != iv {
		t.Fatalf("round trip mismatch: %+v != %+v", got, iv)
	}
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	instant := time.Date(2025, 8, 31, 14, 59, 7, 0, time.UTC)
	if d := DateOf(instant); !d.Equal(NewDate(2025, 8, 31).Time) {
		t.Fatalf("DateOf did not truncate: %s", d)
	}
}
