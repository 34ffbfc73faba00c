package core

// NextDueDate advances a due date by whole recurrence intervals until it is
// strictly after asOf, and returns the first such date. The step count is
// proportional to the number of elapsed intervals, so a job that was offline
// for several periods catches up to the next future occurrence instead of
// advancing a single step.
//
// Month and year steps use time.AddDate, which normalizes overflowing days:
// Jan 31 plus one month lands on Mar 2 (or Mar 3 in leap years), not on the
// last day of February.
func NextDueDate(due Date, iv RecurrenceInterval, asOf Date) (Date, error) {
	if err := iv.Validate(); err != nil {
		return Date{}, err
	}
	next := due.Time
	for !next.After(asOf.Time) {
		switch iv.Unit {
		case UnitWeek:
			next = next.AddDate(0, 0, 7*iv.Count)
		case UnitMonth:
			next = next.AddDate(0, iv.Count, 0)
		case UnitYear:
			next = next.AddDate(iv.Count, 0, 0)
		}
	}
	return Date{Time: next}, nil
}
