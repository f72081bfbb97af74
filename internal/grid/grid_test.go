package grid

import (
	"testing"
	"time"

	"fridgecal/internal/caldate"
	"fridgecal/internal/holiday"
	"fridgecal/internal/model"
)

func d(s string) caldate.Date {
	v, err := caldate.Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// markedDays returns the in-month days of l that carry event id.
func markedDays(l Layout, id int64) []int {
	var days []int
	for _, c := range l.Cells {
		for _, ev := range c.Events {
			if ev.ID == id {
				days = append(days, c.Day)
			}
		}
	}
	return days
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLayoutShape(t *testing.T) {
	l := Render(2025, 5, nil, "modern", nil)
	if l.Title != "2025년 5월" {
		t.Errorf("Title = %q", l.Title)
	}
	// May 2025 starts on Thursday: 4 leading empty cells.
	for i := 0; i < 4; i++ {
		if !l.Cells[i].Empty {
			t.Errorf("cell %d should be empty", i)
		}
	}
	first := l.Cells[4]
	if first.Empty || first.Day != 1 || first.Weekday != time.Thursday {
		t.Errorf("first day cell = %+v", first)
	}
	last := l.Cells[4+30]
	if last.Day != 31 || last.Weekday != time.Saturday {
		t.Errorf("last day cell = %+v", last)
	}
	for i := 4 + 31; i < CellsLen; i++ {
		if !l.Cells[i].Empty {
			t.Errorf("trailing cell %d not empty", i)
		}
	}
}

func TestSingleDayEvent(t *testing.T) {
	ev := model.CalendarEvent{ID: 1, Date: d("2025-05-05"), EndDate: d("2025-05-05"), Content: "소풍", Color: "#3b82f6"}
	l := Render(2025, 5, []model.CalendarEvent{ev}, "modern", nil)
	if got := markedDays(l, 1); !equalInts(got, []int{5}) {
		t.Errorf("marked days = %v, want [5]", got)
	}
}

func TestMultiDayEvent(t *testing.T) {
	ev := model.CalendarEvent{ID: 1, Date: d("2025-05-01"), EndDate: d("2025-05-03"), Content: "워크숍"}
	l := Render(2025, 5, []model.CalendarEvent{ev}, "modern", nil)
	if got := markedDays(l, 1); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("marked days = %v, want [1 2 3]", got)
	}
}

func TestRangeIsClippedToMonth(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		year       int
		month      int
		want       []int
	}{
		{"spans into month", "2025-04-29", "2025-05-02", 2025, 5, []int{1, 2}},
		{"spans out of month", "2025-05-30", "2025-06-02", 2025, 5, []int{30, 31}},
		{"covers whole month", "2025-01-15", "2025-03-10", 2025, 2, seq(1, 28)},
		{"previous month view", "2025-05-30", "2025-06-02", 2025, 6, []int{1, 2}},
		{"outside month", "2025-04-01", "2025-04-30", 2025, 5, nil},
		{"across year", "2025-12-30", "2026-01-02", 2026, 1, []int{1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev := model.CalendarEvent{ID: 7, Date: d(c.start), EndDate: d(c.end), Content: "x"}
			l := Render(c.year, c.month, []model.CalendarEvent{ev}, "grid", nil)
			if got := markedDays(l, 7); !equalInts(got, c.want) {
				t.Errorf("marked days = %v, want %v", got, c.want)
			}
		})
	}
}

// Every in-month day of the intersection is marked, and no other day.
func TestRangeIntersectionProperty(t *testing.T) {
	start := d("2025-04-20")
	for span := 0; span < 60; span += 3 {
		end := start.AddDays(span)
		ev := model.CalendarEvent{ID: 1, Date: start, EndDate: end, Content: "x"}
		for _, ym := range [][2]int{{2025, 4}, {2025, 5}, {2025, 6}} {
			l := Render(ym[0], ym[1], []model.CalendarEvent{ev}, "modern", nil)
			for _, c := range l.Cells {
				if c.Empty {
					if len(c.Events) != 0 {
						t.Fatalf("empty cell carries events")
					}
					continue
				}
				want := !c.Date.Before(start) && !c.Date.After(end)
				got := len(c.Events) == 1
				if got != want {
					t.Fatalf("span %d, %v: marked=%v want %v", span, c.Date, got, want)
				}
			}
		}
	}
}

func TestInvalidRangeFallsBackToStartDay(t *testing.T) {
	ev := model.CalendarEvent{ID: 1, Date: d("2025-05-10"), EndDate: d("2025-05-01"), Content: "x"}
	l := Render(2025, 5, []model.CalendarEvent{ev}, "modern", nil)
	if got := markedDays(l, 1); !equalInts(got, []int{10}) {
		t.Errorf("marked days = %v", got)
	}
}

func TestMarkersAndOverflowKeepOrder(t *testing.T) {
	var events []model.CalendarEvent
	for i := int64(1); i <= 5; i++ {
		events = append(events, model.CalendarEvent{ID: i, Date: d("2025-05-05"), EndDate: d("2025-05-05"), Content: "x"})
	}
	l := Render(2025, 5, events, "modern", nil)
	c := l.Cells[4+4]
	if c.Day != 5 {
		t.Fatalf("picked wrong cell: %+v", c)
	}
	m := c.Markers()
	if len(m) != 3 || m[0].ID != 1 || m[2].ID != 3 {
		t.Errorf("markers = %+v", m)
	}
	if c.Overflow() != 2 {
		t.Errorf("overflow = %d", c.Overflow())
	}
}

func TestHolidaysAttached(t *testing.T) {
	l := Render(2025, 5, nil, "modern", holiday.Default())
	if h := l.Cells[4+4].Holiday; h == nil || h.Name != "어린이날" {
		t.Errorf("May 5 holiday = %+v", h)
	}
	if h := l.Cells[4+6].Holiday; h != nil {
		t.Errorf("May 7 has holiday %+v", h)
	}
}

func TestStyleNeverChangesCells(t *testing.T) {
	ev := model.CalendarEvent{ID: 1, Date: d("2025-05-01"), EndDate: d("2025-05-03"), Content: "x"}
	base := Render(2025, 5, []model.CalendarEvent{ev}, "modern", nil)
	for _, s := range append(Styles, Style{ID: "unknown"}) {
		l := Render(2025, 5, []model.CalendarEvent{ev}, s.ID, nil)
		for i := range l.Cells {
			if l.Cells[i].Day != base.Cells[i].Day || len(l.Cells[i].Events) != len(base.Cells[i].Events) {
				t.Fatalf("style %q changed cell %d", s.ID, i)
			}
		}
	}
	if l := Render(2025, 5, nil, "unknown", nil); l.Style.ID != DefaultStyleID {
		t.Errorf("unknown style resolved to %q", l.Style.ID)
	}
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
