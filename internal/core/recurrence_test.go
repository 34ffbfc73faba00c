package core

import (
	"errors"
	"testing"
)

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name     string
		due      Date
		interval RecurrenceInterval
		asOf     Date
		want     Date
	}{
		{
			name:     "monthly catches up over multiple elapsed periods",
			due:      NewDate(2024, 1, 1),
			interval: RecurrenceInterval{Count: 1, Unit: UnitMonth},
			asOf:     NewDate(2024, 3, 15),
			want:     NewDate(2024, 4, 1),
		},
		{
			name:     "weekly one step",
			due:      NewDate(2024, 6, 3),
			interval: RecurrenceInterval{Count: 1, Unit: UnitWeek},
			asOf:     NewDate(2024, 6, 3),
			want:     NewDate(2024, 6, 10),
		},
		{
			name:     "biweekly skips past reference",
			due:      NewDate(2024, 1, 1),
			interval: RecurrenceInterval{Count: 2, Unit: UnitWeek},
			asOf:     NewDate(2024, 1, 29),
			want:     NewDate(2024, 2, 12),
		},
		{
			name:     "quarterly expressed as three months",
			due:      NewDate(2024, 1, 15),
			interval: RecurrenceInterval{Count: 3, Unit: UnitMonth},
			asOf:     NewDate(2024, 7, 1),
			want:     NewDate(2024, 7, 15),
		},
		{
			name:     "yearly",
			due:      NewDate(2022, 5, 20),
			interval: RecurrenceInterval{Count: 1, Unit: UnitYear},
			asOf:     NewDate(2024, 5, 20),
			want:     NewDate(2025, 5, 20),
		},
		{
			name:     "due equal to asOf still advances",
			due:      NewDate(2024, 8, 1),
			interval: RecurrenceInterval{Count: 1, Unit: UnitMonth},
			asOf:     NewDate(2024, 8, 1),
			want:     NewDate(2024, 9, 1),
		},
		{
			name:     "jan 31 monthly normalizes into march",
			due:      NewDate(2025, 1, 31),
			interval: RecurrenceInterval{Count: 1, Unit: UnitMonth},
			asOf:     NewDate(2025, 2, 1),
			want:     NewDate(2025, 3, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDueDate(tt.due, tt.interval, tt.asOf)
			if err != nil {
				t.Fatalf("NextDueDate error: %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Fatalf("NextDueDate = %s, want %s", got, tt.want)
			}
			if !got.After(tt.asOf.Time) {
				t.Fatalf("result %s is not strictly after asOf %s", got, tt.asOf)
			}
		})
	}
}

func TestNextDueDate_Minimality(t *testing.T) {
	// The result must be the smallest future multiple: stepping back one
	// interval from the result has to land at or before asOf.
	due := NewDate(2023, 2, 10)
	asOf := NewDate(2024, 11, 7)
	for _, iv := range []RecurrenceInterval{
		{Count: 1, Unit: UnitWeek},
		{Count: 3, Unit: UnitWeek},
		{Count: 1, Unit: UnitMonth},
		{Count: 6, Unit: UnitMonth},
		{Count: 1, Unit: UnitYear},
	} {
		got, err := NextDueDate(due, iv, asOf)
		if err != nil {
			t.Fatalf("NextDueDate(%s) error: %v", iv, err)
		}
		var prev Date
		switch iv.Unit {
		case UnitWeek:
			prev = Date{Time: got.AddDate(0, 0, -7*iv.Count)}
		case UnitMonth:
			prev = Date{Time: got.AddDate(0, -iv.Count, 0)}
		case UnitYear:
			prev = Date{Time: got.AddDate(-iv.Count, 0, 0)}
		}
		if prev.After(asOf.Time) {
			t.Errorf("interval %s: %s is not minimal, %s is also after %s", iv, got, prev, asOf)
		}
	}
}

func TestNextDueDate_InvalidInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval RecurrenceInterval
	}{
		{"unknown unit", RecurrenceInterval{Count: 1, Unit: "fortnight"}},
		{"zero count", RecurrenceInterval{Count: 0, Unit: UnitWeek}},
		{"negative count", RecurrenceInterval{Count: -2, Unit: UnitMonth}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextDueDate(NewDate(2024, 1, 1), tt.interval, NewDate(2024, 6, 1))
			if !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}
