package caldate

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	d, err := Parse("2025-05-05")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if d != (Date{2025, 5, 5}) {
		t.Errorf("got %+v", d)
	}
	if d.String() != "2025-05-05" {
		t.Errorf("String() = %q", d.String())
	}

	for _, bad := range []string{"2025-02-30", "2025-5-1", "", "2025/05/01", "20250501"} {
		if _, err := Parse(bad); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalid", bad, err)
		}
	}
}

func TestNewRejectsImpossibleDays(t *testing.T) {
	if _, err := New(2024, 2, 29); err != nil {
		t.Errorf("2024-02-29 is a leap day: %v", err)
	}
	if _, err := New(2025, 2, 29); err == nil {
		t.Error("2025-02-29 should be rejected")
	}
	if _, err := New(2025, 13, 1); err == nil {
		t.Error("month 13 should be rejected")
	}
}

func TestCompareAndAddDays(t *testing.T) {
	a := Date{2025, 12, 31}
	b := a.AddDays(1)
	if b != (Date{2026, 1, 1}) {
		t.Fatalf("AddDays across year = %v", b)
	}
	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Error("ordering broken")
	}
	if got := (Date{2025, 3, 1}).AddDays(-1); got != (Date{2025, 2, 28}) {
		t.Errorf("AddDays(-1) = %v", got)
	}
}

func TestMonthHelpers(t *testing.T) {
	if DaysIn(2025, 2) != 28 || DaysIn(2024, 2) != 29 || DaysIn(2025, 12) != 31 {
		t.Error("DaysIn wrong")
	}
	// 2025-05-01 is a Thursday.
	if FirstWeekday(2025, 5) != time.Thursday {
		t.Errorf("FirstWeekday(2025,5) = %v", FirstWeekday(2025, 5))
	}
	first, last := MonthBounds(2025, 4)
	if first.String() != "2025-04-01" || last.String() != "2025-04-30" {
		t.Errorf("MonthBounds = %v %v", first, last)
	}
}

func TestMonthNavigationWraps(t *testing.T) {
	if y, m := PrevMonth(2025, 1); y != 2024 || m != 12 {
		t.Errorf("PrevMonth(2025,1) = %d,%d", y, m)
	}
	if y, m := NextMonth(2025, 12); y != 2026 || m != 1 {
		t.Errorf("NextMonth(2025,12) = %d,%d", y, m)
	}
	if y, m := NextMonth(2025, 5); y != 2025 || m != 6 {
		t.Errorf("NextMonth(2025,5) = %d,%d", y, m)
	}
}

func TestTextRoundTripOfZero(t *testing.T) {
	var d Date
	if err := d.UnmarshalText(nil); err != nil || !d.IsZero() {
		t.Errorf("empty text should give zero date, got %v %v", d, err)
	}
	b, _ := Date{}.MarshalText()
	if len(b) != 0 {
		t.Errorf("zero date marshals to %q", b)
	}
}
