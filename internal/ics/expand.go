package ics

import (
	"errors"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"fridgecal/internal/caldate"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/model"
	"fridgecal/internal/store"
)

const defaultMaxPerEvent = 500

// Window bounds recurrence expansion to whole days [Start, End].
type Window struct {
	Start caldate.Date
	End   caldate.Date
	// Location converts timed events to calendar days (default time.Local).
	Location *time.Location
	// MaxPerEvent caps instances of one recurring event.
	MaxPerEvent int
}

// YearWindow spans the year before through the year after year.
func YearWindow(year int, loc *time.Location) Window {
	return Window{
		Start:    caldate.Date{Year: year - 1, Month: 1, Day: 1},
		End:      caldate.Date{Year: year + 1, Month: 12, Day: 31},
		Location: loc,
	}
}

// Result is the outcome of Expand.
type Result struct {
	Inputs []store.Input
	// Truncated lists UIDs that hit MaxPerEvent.
	Truncated []string
	// Skipped counts instances dropped for having no summary.
	Skipped int
}

// Expand turns parsed events into store inputs for every instance that
// overlaps w. Overrides replace the instance they name; EXDATEs remove
// instances. Output is ordered by start date, stable in feed order.
func Expand(events []Event, src Source, w Window) (Result, error) {
	var res Result
	if w.End.Before(w.Start) {
		return res, errors.New("ics: window end before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxPerEvent
	}

	overrides := map[string][]Event{}
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	for _, ev := range events {
		if ev.RecurrenceID != nil {
			continue
		}
		for _, inst := range instances(ev, overrides[ev.UID], w, &res) {
			in, ok := toInput(inst, src, w.Location)
			if !ok {
				res.Skipped++
				continue
			}
			if in.EndDate.Before(w.Start) || in.Date.After(w.End) {
				continue
			}
			res.Inputs = append(res.Inputs, in)
		}
	}

	slices.SortStableFunc(res.Inputs, func(a, b store.Input) int {
		return a.Date.Compare(b.Date)
	})
	return res, nil
}

// instances lists the concrete occurrences of ev inside w.
func instances(ev Event, overrides []Event, w Window, res *Result) []Event {
	if ev.RRule == "" {
		return []Event{ev}
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		appLog.Warn("ics rrule invalid", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return []Event{ev}
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	// Widen by the event length so instances starting before the window
	// but still running inside it are kept.
	span := ev.End.Sub(ev.Start)
	from := time.Date(w.Start.Year, time.Month(w.Start.Month), w.Start.Day, 0, 0, 0, 0, loc).Add(-span)
	to := time.Date(w.End.Year, time.Month(w.End.Month), w.End.Day, 23, 59, 59, 0, loc)

	starts := set.Between(from, to, true)
	windowStart := from.Add(span)
	starts = slices.DeleteFunc(starts, func(s time.Time) bool {
		return span > 0 && !s.Add(span).After(windowStart)
	})
	if len(starts) > w.MaxPerEvent {
		starts = starts[:w.MaxPerEvent]
		res.Truncated = append(res.Truncated, ev.UID)
		appLog.Warn("ics recurrence truncated", "uid", ev.UID, "cap", w.MaxPerEvent)
	}

	out := make([]Event, 0, len(starts))
	for _, s := range starts {
		inst := ev
		inst.RRule = ""
		inst.Start = s
		inst.End = s.Add(span)
		for _, o := range overrides {
			if o.RecurrenceID.Equal(s) {
				inst = o
				break
			}
		}
		out = append(out, inst)
	}
	return out
}

// toInput maps an occurrence to inclusive calendar days.
func toInput(ev Event, src Source, loc *time.Location) (store.Input, bool) {
	if ev.Summary == "" {
		return store.Input{}, false
	}

	var start, end caldate.Date
	if ev.AllDay {
		start = caldate.FromTime(ev.Start)
		end = caldate.FromTime(ev.End).AddDays(-1)
	} else {
		s, e := ev.Start.In(loc), ev.End.In(loc)
		start = caldate.FromTime(s)
		end = caldate.FromTime(e)
		// Ending exactly at midnight does not occupy the next day.
		if e.After(s) && e.Hour() == 0 && e.Minute() == 0 && e.Second() == 0 {
			end = end.AddDays(-1)
		}
	}
	if end.Before(start) {
		end = start
	}

	color, ok := model.NormalizeColor(ev.Color)
	if !ok {
		color, _ = model.NormalizeColor(src.Color)
	}
	return store.Input{Date: start, EndDate: end, Content: ev.Summary, Color: color}, true
}
