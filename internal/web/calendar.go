package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fridgecal/internal/export"
	"fridgecal/internal/ics"
	appLog "fridgecal/internal/log"
	"fridgecal/internal/page"
)

const maxICSBody = 5 << 20

type calendarResponse struct {
	page.State
	Export *exportStatus `json:"export,omitempty"`
}

type exportStatus struct {
	Policy     export.Policy `json:"policy"`
	InProgress bool          `json:"in_progress"`
	Pending    bool          `json:"pending"`
	Stats      export.Stats  `json:"stats"`
}

func (s *Server) calendarState() calendarResponse {
	resp := calendarResponse{State: s.page.State()}
	if s.exporter != nil {
		resp.Export = &exportStatus{
			Policy:     s.exporter.Policy(),
			InProgress: s.exporter.InProgress(),
			Pending:    s.exporter.Pending(),
			Stats:      s.exporter.Stats(),
		}
	}
	return resp
}

// pageErrorStatus maps controller errors to HTTP status codes.
func pageErrorStatus(err error) int {
	switch {
	case errors.Is(err, page.ErrUnknownEvent):
		return http.StatusNotFound
	case errors.Is(err, page.ErrNoExporter):
		return http.StatusServiceUnavailable
	case errors.Is(err, page.ErrEmptyContent),
		errors.Is(err, page.ErrInvalidDate),
		errors.Is(err, page.ErrInvalidColor),
		errors.Is(err, page.ErrUnknownStyle),
		errors.Is(err, page.ErrUnknownRatio):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writePageError(w http.ResponseWriter, err error) {
	writeError(w, pageErrorStatus(err), err.Error())
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.calendarState())
}

func (s *Server) handleCalendarUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year  *int    `json:"year"`
		Month *int    `json:"month"`
		Style *string `json:"style"`
		Ratio *string `json:"ratio"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.page.Update(page.Change{
		Year:    req.Year,
		Month:   req.Month,
		StyleID: req.Style,
		RatioID: req.Ratio,
	})
	if err != nil {
		writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.calendarState())
}

func (s *Server) handleCalendarPrev(w http.ResponseWriter, _ *http.Request) {
	s.page.PrevMonth()
	writeJSON(w, http.StatusOK, s.calendarState())
}

func (s *Server) handleCalendarNext(w http.ResponseWriter, _ *http.Request) {
	s.page.NextMonth()
	writeJSON(w, http.StatusOK, s.calendarState())
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width int `json:"width"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	// A fixed viewport in config pins the policy.
	if s.cfg.Export.Viewport != "auto" {
		var p export.Policy
		if s.exporter != nil {
			p = s.exporter.Policy()
		}
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeJSON(w, http.StatusOK, s.page.SetViewportWidth(req.Width))
}

func (s *Server) handleGrid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.page.LiveGrid())
}

type imageInfo struct {
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Scale     float64   `json:"scale"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	v := s.page.View()
	resp := map[string]any{"mode": v.Mode()}
	if v.Image != nil {
		img := v.Image
		resp["image"] = imageInfo{
			URL:       fmt.Sprintf("/preview.png?t=%d", img.CreatedAt.UnixMilli()),
			Width:     img.Width,
			Height:    img.Height,
			Scale:     img.Scale,
			Year:      img.Snapshot.Year,
			Month:     img.Snapshot.Month,
			CreatedAt: img.CreatedAt,
		}
	} else {
		resp["grid"] = v.Live
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	v := s.page.View()
	if v.Image == nil {
		http.Error(w, "no exported image yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(v.Image.PNG)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(v.Image.PNG)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name, img, err := s.page.Download(r.Context())
	if err != nil {
		writePageError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.PNG)
}

func (s *Server) handleEventsList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.page.State().Events)
}

func (s *Server) handleEventCreate(w http.ResponseWriter, r *http.Request) {
	var form page.EventForm
	if !decodeJSON(w, r, &form) {
		return
	}
	id, err := s.page.AddEvent(form)
	if err != nil {
		writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func eventID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return 0, false
	}
	return id, true
}

// handleEventUpdate saves an event. It closes the inline editor when that
// event was being edited.
func (s *Server) handleEventUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	var form page.EventForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := s.page.SaveEdit(page.Draft{ID: id, EventForm: form}); err != nil {
		writePageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	if !s.page.RemoveEvent(id) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditBegin(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	d, err := s.page.BeginEdit(id)
	if err != nil {
		writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleEditCancel(w http.ResponseWriter, _ *http.Request) {
	s.page.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEventsICS(w http.ResponseWriter, _ *http.Request) {
	st := s.page.State()
	body := ics.Export(st.Events, "fridgecal", time.Now().UTC())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fridgecal.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// handleEventsImport expands an uploaded ICS feed around the displayed
// year and adds the result in one batch.
func (s *Server) handleEventsImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxICSBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "ICS body too large")
		return
	}

	src := ics.Source{ID: "upload", Name: "upload", Color: r.URL.Query().Get("color")}
	events, err := ics.Parse(src, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := s.cfg.Location()
	if err != nil {
		appLog.Warn("timezone fallback for ICS import", "timezone", s.cfg.Timezone, "err", err)
	}
	res, err := ics.Expand(events, src, ics.YearWindow(s.page.State().Year, loc))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := s.page.ImportEvents(res.Inputs)
	appLog.Info("ics import", "events", n, "skipped", res.Skipped, "truncated", len(res.Truncated))

	writeJSON(w, http.StatusOK, map[string]any{
		"imported":  n,
		"skipped":   res.Skipped,
		"truncated": res.Truncated,
	})
}
