package model

import (
	"regexp"
	"strings"
	"time"

	"fridgecal/internal/caldate"
)

// DefaultColor is used for events whose color is missing or malformed.
const DefaultColor = "#3b82f6"

// CalendarEvent is a user-created entry on the calendar.
//
// EndDate is always >= Date; the store clamps it on every write.
type CalendarEvent struct {
	ID      int64        `json:"id"`
	Date    caldate.Date `json:"date"`
	EndDate caldate.Date `json:"end_date"`
	Content string       `json:"content"`
	Color   string       `json:"color"`
}

// Covers reports whether d falls within [Date, EndDate].
func (e CalendarEvent) Covers(d caldate.Date) bool {
	end := e.EndDate
	if end.IsZero() || end.Before(e.Date) {
		end = e.Date
	}
	return !d.Before(e.Date) && !d.After(end)
}

// MultiDay reports whether the event spans more than its start date.
func (e CalendarEvent) MultiDay() bool {
	return !e.EndDate.IsZero() && e.EndDate.After(e.Date)
}

// RenderSnapshot is an immutable copy of calendar state used as the input
// of one export cycle. It never shares the Events backing array with the
// live store.
type RenderSnapshot struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Events  []CalendarEvent `json:"events"`
	StyleID string          `json:"style"`
	RatioID string          `json:"ratio"`
}

// Clone returns a deep copy of s.
func (s RenderSnapshot) Clone() RenderSnapshot {
	out := s
	out.Events = append([]CalendarEvent(nil), s.Events...)
	return out
}

// ExportedImage is an encoded PNG plus the snapshot it was rendered from.
type ExportedImage struct {
	PNG       []byte
	Width     int
	Height    int
	Scale     float64
	Snapshot  RenderSnapshot
	CreatedAt time.Time
}

// Ratio is an export canvas size in CSS pixels (before scale).
type Ratio struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultRatioID is the 1080x1920 story format.
const DefaultRatioID = "9_16"

var Ratios = []Ratio{
	{ID: "1_1", Label: "1:1", Width: 1080, Height: 1080},
	{ID: "4_5", Label: "4:5", Width: 1080, Height: 1350},
	{ID: "9_16", Label: "9:16", Width: 1080, Height: 1920},
}

// RatioByID resolves id, falling back to the default ratio.
func RatioByID(id string) (Ratio, bool) {
	for _, r := range Ratios {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range Ratios {
		if r.ID == DefaultRatioID {
			return r, false
		}
	}
	return Ratios[0], false
}

var (
	hex6 = regexp.MustCompile(`^#[0-9a-f]{6}$`)
	hex3 = regexp.MustCompile(`^#[0-9a-f]{3}$`)
)

// NormalizeColor lower-cases a #rrggbb color and expands #rgb. Anything
// else yields DefaultColor and ok=false.
func NormalizeColor(c string) (string, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	switch {
	case hex6.MatchString(c):
		return c, true
	case hex3.MatchString(c):
		return "#" + strings.Repeat(c[1:2], 2) + strings.Repeat(c[2:3], 2) + strings.Repeat(c[3:4], 2), true
	default:
		return DefaultColor, false
	}
}
