package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"fridgecal/internal/model"
)

// Export serializes events as all-day VEVENTs. DTEND is the day after
// the last day, as RFC 5545 requires for DATE values.
func Export(events []model.CalendarEvent, name string, now time.Time) string {
	cal := ical.NewCalendarFor("fridgecal")
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		e := cal.AddEvent(fmt.Sprintf("event-%d@fridgecal", ev.ID))
		e.SetDtStampTime(now)
		e.SetSummary(ev.Content)
		e.SetAllDayStartAt(ev.Date.Time())
		end := ev.EndDate
		if end.IsZero() || end.Before(ev.Date) {
			end = ev.Date
		}
		e.SetAllDayEndAt(end.AddDays(1).Time())
		if ev.Color != "" {
			e.SetColor(ev.Color)
		}
	}
	return cal.Serialize()
}
