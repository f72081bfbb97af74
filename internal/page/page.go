// Package page is the calendar page controller. It owns navigation and
// style state, turns form input into event store mutations, sends a change
// signal to the exporter on every state change, and decides whether the
// latest exported raster or the live grid is shown.
package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fridgecal/internal/caldate"
	"fridgecal/internal/export"
	"fridgecal/internal/grid"
	"fridgecal/internal/holiday"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/model"
	"fridgecal/internal/store"
)

var (
	ErrEmptyContent = errors.New("page: event content is empty")
	ErrInvalidDate  = errors.New("page: invalid date")
	ErrInvalidColor = errors.New("page: invalid color")
	ErrUnknownEvent = errors.New("page: unknown event")
	ErrUnknownStyle = errors.New("page: unknown style")
	ErrUnknownRatio = errors.New("page: unknown ratio")
	ErrNoExporter   = errors.New("page: exporter not attached")
)

// Palette is the fixed set of quick-pick event colors.
var Palette = []string{"#3b82f6", "#ef4444", "#22c55e", "#eab308", "#a855f7", "#ec4899", "#06b6d4", "#f97316"}

// DefaultStyleID is the style selected on a fresh page.
const DefaultStyleID = "modern"

// Exporter is the part of the export scheduler the page depends on.
type Exporter interface {
	Notify()
	Latest() (model.ExportedImage, bool)
	CaptureNow(ctx context.Context, snap model.RenderSnapshot, scale float64) (model.ExportedImage, error)
	SetPolicy(p export.Policy)
}

// EventForm is the raw add/edit form. Dates are YYYY-MM-DD; EndDate may be
// empty for a single-day event; Color may be empty for the first palette
// color.
type EventForm struct {
	Date    string `json:"date"`
	EndDate string `json:"end_date,omitempty"`
	Content string `json:"content"`
	Color   string `json:"color,omitempty"`
}

// Draft is the inline edit state of one event.
type Draft struct {
	ID int64 `json:"id"`
	EventForm
}

type Options struct {
	Location      *time.Location
	StyleID       string
	RatioID       string
	Palette       []string
	Holidays      holiday.Lookuper
	DownloadScale float64
	// Policies maps a viewport width to its capture policy. Defaults to
	// export.PolicyForViewport.
	Policies func(width int) export.Policy
	// Today overrides the current date (tests).
	Today func() caldate.Date
}

// Change is a partial page update. Nil fields are left as they are.
type Change struct {
	Year    *int
	Month   *int
	StyleID *string
	RatioID *string
}

// State is a read-only view of the page for rendering.
type State struct {
	Year    int                   `json:"year"`
	Month   int                   `json:"month"`
	Title   string                `json:"title"`
	StyleID string                `json:"style"`
	RatioID string                `json:"ratio"`
	Events  []model.CalendarEvent `json:"events"`
	Editing *Draft                `json:"editing,omitempty"`
	Palette []string              `json:"palette"`
}

// View is either the latest raster or, while none exists, the live grid.
type View struct {
	Image *model.ExportedImage
	Live  *grid.Layout
}

func (v View) Mode() string {
	if v.Image != nil {
		return "image"
	}
	return "live"
}

type Controller struct {
	store    *store.Store
	holidays holiday.Lookuper
	palette  []string
	scale    float64
	policies func(width int) export.Policy

	mu       sync.RWMutex
	year     int
	month    int
	styleID  string
	ratioID  string
	editing  *Draft
	exporter Exporter
}

// New builds a controller positioned on the current month. Every store
// mutation, whatever its origin, is forwarded to the exporter.
func New(st *store.Store, opts Options) *Controller {
	today := opts.Today
	if today == nil {
		loc := opts.Location
		today = func() caldate.Date { return caldate.Today(loc) }
	}
	now := today()

	styleID := opts.StyleID
	if _, ok := grid.StyleByID(styleID); !ok {
		styleID = DefaultStyleID
	}
	ratioID := opts.RatioID
	if _, ok := model.RatioByID(ratioID); !ok {
		ratioID = model.DefaultRatioID
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = Palette
	}
	scale := opts.DownloadScale
	if scale <= 0 {
		scale = export.DesktopPolicy.Scale
	}
	policies := opts.Policies
	if policies == nil {
		policies = export.PolicyForViewport
	}

	c := &Controller{
		store:    st,
		holidays: opts.Holidays,
		palette:  palette,
		scale:    scale,
		policies: policies,
		year:     now.Year,
		month:    now.Month,
		styleID:  styleID,
		ratioID:  ratioID,
	}
	st.OnChange(c.changed)
	return c
}

// Attach connects the exporter. The scheduler needs the controller as its
// Source, so the two are wired after construction.
func (c *Controller) Attach(e Exporter) {
	c.mu.Lock()
	c.exporter = e
	c.mu.Unlock()
}

func (c *Controller) changed() {
	c.mu.RLock()
	e := c.exporter
	c.mu.RUnlock()
	if e != nil {
		e.Notify()
	}
}

// Snapshot freezes the current state; it implements export.Source.
func (c *Controller) Snapshot() model.RenderSnapshot {
	events := c.store.List()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.RenderSnapshot{
		Year:    c.year,
		Month:   c.month,
		Events:  events,
		StyleID: c.styleID,
		RatioID: c.ratioID,
	}
}

func (c *Controller) State() State {
	snap := c.Snapshot()
	c.mu.RLock()
	var editing *Draft
	if c.editing != nil {
		d := *c.editing
		editing = &d
	}
	c.mu.RUnlock()
	return State{
		Year:    snap.Year,
		Month:   snap.Month,
		Title:   grid.Title(snap.Year, snap.Month),
		StyleID: snap.StyleID,
		RatioID: snap.RatioID,
		Events:  snap.Events,
		Editing: editing,
		Palette: append([]string(nil), c.palette...),
	}
}

// LiveGrid renders the current state directly.
func (c *Controller) LiveGrid() grid.Layout {
	s := c.Snapshot()
	return grid.Render(s.Year, s.Month, s.Events, s.StyleID, c.holidays)
}

// View prefers the latest exported raster and falls back to the live grid.
func (c *Controller) View() View {
	c.mu.RLock()
	e := c.exporter
	c.mu.RUnlock()
	if e != nil {
		if img, ok := e.Latest(); ok {
			return View{Image: &img}
		}
	}
	l := c.LiveGrid()
	return View{Live: &l}
}

// PrevMonth moves back one month, wrapping January to December of the
// previous year.
func (c *Controller) PrevMonth() (int, int) {
	c.mu.Lock()
	c.year, c.month = caldate.PrevMonth(c.year, c.month)
	y, m := c.year, c.month
	c.mu.Unlock()
	c.changed()
	return y, m
}

// NextMonth moves forward one month, wrapping December to January of the
// next year.
func (c *Controller) NextMonth() (int, int) {
	c.mu.Lock()
	c.year, c.month = caldate.NextMonth(c.year, c.month)
	y, m := c.year, c.month
	c.mu.Unlock()
	c.changed()
	return y, m
}

func (c *Controller) GoTo(year, month int) error {
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return fmt.Errorf("%w: %d-%d", ErrInvalidDate, year, month)
	}
	c.mu.Lock()
	same := c.year == year && c.month == month
	c.year, c.month = year, month
	c.mu.Unlock()
	if !same {
		c.changed()
	}
	return nil
}

func (c *Controller) SetStyle(id string) error {
	if _, ok := grid.StyleByID(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, id)
	}
	c.mu.Lock()
	same := c.styleID == id
	c.styleID = id
	c.mu.Unlock()
	if !same {
		c.changed()
	}
	return nil
}

func (c *Controller) SetRatio(id string) error {
	if _, ok := model.RatioByID(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRatio, id)
	}
	c.mu.Lock()
	same := c.ratioID == id
	c.ratioID = id
	c.mu.Unlock()
	if !same {
		c.changed()
	}
	return nil
}

// Update validates every field of ch before applying any of them, so a
// rejected change leaves the page untouched. It signals at most once.
func (c *Controller) Update(ch Change) error {
	c.mu.Lock()
	year, month := c.year, c.month
	styleID, ratioID := c.styleID, c.ratioID
	if ch.Year != nil {
		year = *ch.Year
	}
	if ch.Month != nil {
		month = *ch.Month
	}
	if ch.StyleID != nil {
		styleID = *ch.StyleID
	}
	if ch.RatioID != nil {
		ratioID = *ch.RatioID
	}
	var err error
	switch {
	case month < 1 || month > 12 || year < 1 || year > 9999:
		err = fmt.Errorf("%w: %d-%d", ErrInvalidDate, year, month)
	case !validStyle(styleID):
		err = fmt.Errorf("%w: %q", ErrUnknownStyle, styleID)
	case !validRatio(ratioID):
		err = fmt.Errorf("%w: %q", ErrUnknownRatio, ratioID)
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	same := c.year == year && c.month == month && c.styleID == styleID && c.ratioID == ratioID
	c.year, c.month, c.styleID, c.ratioID = year, month, styleID, ratioID
	c.mu.Unlock()
	if !same {
		c.changed()
	}
	return nil
}

func validStyle(id string) bool {
	_, ok := grid.StyleByID(id)
	return ok
}

func validRatio(id string) bool {
	_, ok := model.RatioByID(id)
	return ok
}

// SetViewportWidth switches the exporter between desktop and mobile
// capture policies and returns the one in effect.
func (c *Controller) SetViewportWidth(width int) export.Policy {
	p := c.policies(width)
	c.mu.RLock()
	e := c.exporter
	c.mu.RUnlock()
	if e != nil {
		e.SetPolicy(p)
	}
	return p
}

// parseForm validates f into a store input. Validation order: content,
// dates, color.
func (c *Controller) parseForm(f EventForm) (store.Input, error) {
	content := strings.TrimSpace(f.Content)
	if content == "" {
		return store.Input{}, ErrEmptyContent
	}
	date, err := caldate.Parse(strings.TrimSpace(f.Date))
	if err != nil {
		return store.Input{}, fmt.Errorf("%w: start %q", ErrInvalidDate, f.Date)
	}
	var end caldate.Date
	if s := strings.TrimSpace(f.EndDate); s != "" {
		end, err = caldate.Parse(s)
		if err != nil {
			return store.Input{}, fmt.Errorf("%w: end %q", ErrInvalidDate, f.EndDate)
		}
	}
	color := c.palette[0]
	if strings.TrimSpace(f.Color) != "" {
		var ok bool
		color, ok = model.NormalizeColor(f.Color)
		if !ok {
			return store.Input{}, fmt.Errorf("%w: %q", ErrInvalidColor, f.Color)
		}
	}
	return store.Input{Date: date, EndDate: end, Content: content, Color: color}, nil
}

// AddEvent validates the form and adds the event. Validation failures are
// returned for inline display; the store is left untouched.
func (c *Controller) AddEvent(f EventForm) (int64, error) {
	in, err := c.parseForm(f)
	if err != nil {
		return 0, err
	}
	id, ok := c.store.Add(in)
	if !ok {
		return 0, ErrEmptyContent
	}
	appLog.Info("calendar event added", "id", id, "date", in.Date, "end_date", in.EndDate)
	return id, nil
}

// UpdateEvent replaces an event from a form without going through the
// inline edit state.
func (c *Controller) UpdateEvent(id int64, f EventForm) error {
	in, err := c.parseForm(f)
	if err != nil {
		return err
	}
	if !c.store.Edit(id, in) {
		return fmt.Errorf("%w: %d", ErrUnknownEvent, id)
	}
	return nil
}

// RemoveEvent deletes an event; an inline edit of it is dropped.
func (c *Controller) RemoveEvent(id int64) bool {
	c.mu.Lock()
	if c.editing != nil && c.editing.ID == id {
		c.editing = nil
	}
	c.mu.Unlock()
	return c.store.Remove(id)
}

// ImportEvents adds already-validated inputs in one batch.
func (c *Controller) ImportEvents(ins []store.Input) int {
	return c.store.AddMany(ins)
}

// BeginEdit opens the inline editor for id, pre-filled with its fields.
func (c *Controller) BeginEdit(id int64) (Draft, error) {
	ev, ok := c.store.Get(id)
	if !ok {
		return Draft{}, fmt.Errorf("%w: %d", ErrUnknownEvent, id)
	}
	d := Draft{ID: id, EventForm: EventForm{
		Date:    ev.Date.String(),
		Content: ev.Content,
		Color:   ev.Color,
	}}
	if ev.MultiDay() {
		d.EndDate = ev.EndDate.String()
	}
	c.mu.Lock()
	c.editing = &d
	c.mu.Unlock()
	return d, nil
}

func (c *Controller) Editing() (Draft, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.editing == nil {
		return Draft{}, false
	}
	return *c.editing, true
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()
}

// SaveEdit applies d. On a validation error the edit stays open.
func (c *Controller) SaveEdit(d Draft) error {
	if err := c.UpdateEvent(d.ID, d.EventForm); err != nil {
		return err
	}
	c.mu.Lock()
	if c.editing != nil && c.editing.ID == d.ID {
		c.editing = nil
	}
	c.mu.Unlock()
	return nil
}

// DownloadFilename is calendar-{year}-{MM}.png.
func DownloadFilename(year, month int) string {
	return fmt.Sprintf("calendar-%d-%02d.png", year, month)
}

// Download captures the current state immediately at full scale.
func (c *Controller) Download(ctx context.Context) (string, model.ExportedImage, error) {
	c.mu.RLock()
	e := c.exporter
	c.mu.RUnlock()
	if e == nil {
		return "", model.ExportedImage{}, ErrNoExporter
	}
	snap := c.Snapshot()
	img, err := e.CaptureNow(ctx, snap, c.scale)
	if err != nil {
		appLog.Error("calendar download failed", err, "year", snap.Year, "month", snap.Month)
		return "", model.ExportedImage{}, err
	}
	name := DownloadFilename(snap.Year, snap.Month)
	appLog.Info("calendar download", "file", name, "bytes", len(img.PNG))
	return name, img, nil
}
