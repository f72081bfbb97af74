package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "fridgecal/internal/log"
)

// Source is one ICS feed or uploaded file.
type Source struct {
	ID   string
	Name string
	URL  string
	// Color marks imported events that carry no COLOR of their own.
	Color string
}

// Event is a VEVENT reduced to what the calendar can show.
type Event struct {
	UID     string
	Summary string
	Color   string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time
	// RecurrenceID is set on a VEVENT that overrides one instance.
	RecurrenceID *time.Time
}

// Parse reads an ICS payload. Malformed VEVENTs are skipped and logged;
// only an unreadable calendar is an error.
func Parse(src Source, body []byte) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics: parse %s: %w", src.ID, err)
	}

	var out []Event
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			appLog.Warn("ics vevent skipped", "source", src.ID, "err", err)
			continue
		}
		out = append(out, ev)
	}

	appLog.Info("ics parsed", "source", src.ID, "url", redactURL(src.URL), "events", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var ev Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = strings.TrimSpace(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyColor); p != nil {
		ev.Color = strings.TrimSpace(p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("uid %q: missing DTSTART", ev.UID)
	}
	ev.AllDay = isDateValue(dtStart)

	var err error
	if ev.AllDay {
		ev.Start, err = ve.GetAllDayStartAt()
	} else {
		ev.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return ev, fmt.Errorf("uid %q: DTSTART: %w", ev.UID, err)
	}

	// DTEND is exclusive. Without it an all-day event lasts one day and a
	// timed event is instantaneous.
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		if ev.AllDay {
			ev.End, err = ve.GetAllDayEndAt()
		} else {
			ev.End, err = ve.GetEndAt()
		}
		if err != nil {
			return ev, fmt.Errorf("uid %q: DTEND: %w", ev.UID, err)
		}
	} else if ev.AllDay {
		ev.End = ev.Start.AddDate(0, 0, 1)
	} else {
		ev.End = ev.Start
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	loc := ev.Start.Location()
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		if t, err := parseICSTime(p.Value, loc); err == nil {
			ev.RecurrenceID = &t
		}
	}

	return ev, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseICSTime parses a DATE or DATE-TIME value. Floating values are read
// in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
