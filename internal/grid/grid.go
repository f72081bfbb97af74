// Package grid lays out a month as a fixed 6x7 grid of day cells annotated
// with holidays and user events. Rendering is pure: no I/O, no shared state.
package grid

import (
	"fmt"
	"time"

	"fridgecal/internal/caldate"
	"fridgecal/internal/holiday"
	"fridgecal/internal/model"
)

const (
	Weeks    = 6
	CellsLen = Weeks * 7

	// MaxMarkers is how many event markers a cell shows before "+N".
	MaxMarkers = 3
)

var Weekdays = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// Cell is one slot of the grid. Empty cells pad the month to 42 slots.
type Cell struct {
	Empty   bool                  `json:"empty"`
	Day     int                   `json:"day,omitempty"`
	Date    caldate.Date          `json:"date"`
	Weekday time.Weekday          `json:"weekday"`
	Holiday *holiday.Holiday      `json:"holiday,omitempty"`
	Events  []model.CalendarEvent `json:"events,omitempty"`
}

// Markers returns the events drawn as markers (at most MaxMarkers).
func (c Cell) Markers() []model.CalendarEvent {
	if len(c.Events) > MaxMarkers {
		return c.Events[:MaxMarkers]
	}
	return c.Events
}

// Overflow is the number of events hidden behind the "+N" label.
func (c Cell) Overflow() int {
	if n := len(c.Events) - MaxMarkers; n > 0 {
		return n
	}
	return 0
}

// Layout is the full rendered month.
type Layout struct {
	Year     int            `json:"year"`
	Month    int            `json:"month"`
	Title    string         `json:"title"`
	Style    Style          `json:"style"`
	Weekdays [7]string      `json:"weekdays"`
	Cells    [CellsLen]Cell `json:"cells"`
}

// Title formats the month heading, e.g. "2025년 5월".
func Title(year, month int) string {
	return fmt.Sprintf("%d년 %d월", year, month)
}

// Render lays out year/month. holidays may be nil.
func Render(year, month int, events []model.CalendarEvent, styleID string, holidays holiday.Lookuper) Layout {
	style, _ := StyleByID(styleID)
	l := Layout{
		Year:     year,
		Month:    month,
		Title:    Title(year, month),
		Style:    style,
		Weekdays: Weekdays,
	}

	lead := int(caldate.FirstWeekday(year, month))
	days := caldate.DaysIn(year, month)
	byDay := eventsByDay(events, year, month)

	for i := range l.Cells {
		day := i - lead + 1
		if day < 1 || day > days {
			l.Cells[i] = Cell{Empty: true, Weekday: time.Weekday(i % 7)}
			continue
		}
		date := caldate.Date{Year: year, Month: month, Day: day}
		c := Cell{
			Day:     day,
			Date:    date,
			Weekday: time.Weekday((lead + day - 1) % 7),
			Events:  byDay[day],
		}
		if holidays != nil {
			if h, ok := holidays.Lookup(date); ok {
				c.Holiday = &h
			}
		}
		l.Cells[i] = c
	}
	return l
}

// eventsByDay spreads each event over every day of [Date, EndDate] that
// falls inside the month, preserving event order within a day.
func eventsByDay(events []model.CalendarEvent, year, month int) map[int][]model.CalendarEvent {
	out := make(map[int][]model.CalendarEvent)
	if len(events) == 0 {
		return out
	}
	monthStart, monthEnd := caldate.MonthBounds(year, month)

	for _, ev := range events {
		start := ev.Date
		end := ev.EndDate
		if end.IsZero() || end.Before(start) {
			end = start
		}
		if end.Before(monthStart) || start.After(monthEnd) {
			continue
		}
		from := start
		if from.Before(monthStart) {
			from = monthStart
		}
		to := end
		if to.After(monthEnd) {
			to = monthEnd
		}
		for day := from.Day; day <= to.Day; day++ {
			out[day] = append(out[day], ev)
		}
	}
	return out
}
