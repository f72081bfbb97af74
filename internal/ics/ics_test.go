package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fridgecal/internal/caldate"
	"fridgecal/internal/model"
	"fridgecal/internal/store"
)

func icsBody(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

var sample = icsBody(
	"BEGIN:VEVENT",
	"UID:a@test",
	"DTSTART;VALUE=DATE:20250505",
	"SUMMARY:소풍",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:b@test",
	"DTSTART;VALUE=DATE:20250501",
	"DTEND;VALUE=DATE:20250504",
	"SUMMARY:워크숍",
	"COLOR:#22C55E",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:c@test",
	"DTSTART:20250506T090000Z",
	"DTEND:20250506T100000Z",
	"SUMMARY:회의",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:d@test",
	"DTSTART;VALUE=DATE:20250602",
	"RRULE:FREQ=WEEKLY;COUNT=4",
	"EXDATE;VALUE=DATE:20250609",
	"SUMMARY:분리수거",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:d@test",
	"RECURRENCE-ID;VALUE=DATE:20250616",
	"DTSTART;VALUE=DATE:20250617",
	"SUMMARY:분리수거 (변경)",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:e@test",
	"DTSTART;VALUE=DATE:20250701",
	"END:VEVENT",
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	return loc
}

func TestParse(t *testing.T) {
	events, err := Parse(Source{ID: "t"}, sample)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 6 {
		t.Fatalf("events = %d, want 6", len(events))
	}
	if !events[0].AllDay || events[0].Summary != "소풍" {
		t.Errorf("first = %+v", events[0])
	}
	if events[2].AllDay {
		t.Error("timed event parsed as all-day")
	}
	if events[3].RRule == "" || len(events[3].ExDates) != 1 {
		t.Errorf("recurring = %+v", events[3])
	}
	if events[4].RecurrenceID == nil {
		t.Error("override missing RECURRENCE-ID")
	}

	if _, err := Parse(Source{ID: "t"}, []byte("  ")); err == nil {
		t.Error("empty body accepted")
	}
}

func TestExpand(t *testing.T) {
	events, err := Parse(Source{ID: "t"}, sample)
	if err != nil {
		t.Fatal(err)
	}
	src := Source{ID: "t", Color: "#ef4444"}
	res, err := Expand(events, src, YearWindow(2025, seoul(t)))
	if err != nil {
		t.Fatal(err)
	}

	want := []struct {
		date, end, content, color string
	}{
		{"2025-05-01", "2025-05-03", "워크숍", "#22c55e"},
		{"2025-05-05", "2025-05-05", "소풍", "#ef4444"},
		{"2025-05-06", "2025-05-06", "회의", "#ef4444"},
		{"2025-06-02", "2025-06-02", "분리수거", "#ef4444"},
		{"2025-06-17", "2025-06-17", "분리수거 (변경)", "#ef4444"},
		{"2025-06-23", "2025-06-23", "분리수거", "#ef4444"},
	}
	if len(res.Inputs) != len(want) {
		t.Fatalf("inputs = %+v", res.Inputs)
	}
	for i, w := range want {
		in := res.Inputs[i]
		if in.Date.String() != w.date || in.EndDate.String() != w.end || in.Content != w.content || in.Color != w.color {
			t.Errorf("input %d = %s..%s %q %s, want %+v", i, in.Date, in.EndDate, in.Content, in.Color, w)
		}
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d", res.Skipped)
	}
}

func TestExpandWindowAndCap(t *testing.T) {
	events, _ := Parse(Source{ID: "t"}, icsBody(
		"BEGIN:VEVENT",
		"UID:daily@test",
		"DTSTART;VALUE=DATE:20250101",
		"RRULE:FREQ=DAILY",
		"SUMMARY:물 주기",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:old@test",
		"DTSTART;VALUE=DATE:20200101",
		"SUMMARY:옛날",
		"END:VEVENT",
	))
	w := Window{
		Start:       caldate.Date{Year: 2025, Month: 3, Day: 1},
		End:         caldate.Date{Year: 2025, Month: 3, Day: 31},
		Location:    time.UTC,
		MaxPerEvent: 10,
	}
	res, err := Expand(events, Source{}, w)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Inputs) != 10 || res.Inputs[0].Date.String() != "2025-03-01" {
		t.Errorf("inputs = %d, first %v", len(res.Inputs), res.Inputs)
	}
	if len(res.Truncated) != 1 || res.Truncated[0] != "daily@test" {
		t.Errorf("truncated = %v", res.Truncated)
	}
	if res.Inputs[0].Color != model.DefaultColor {
		t.Errorf("color = %q", res.Inputs[0].Color)
	}

	w.End = caldate.Date{Year: 2025, Month: 2, Day: 1}
	if _, err := Expand(events, Source{}, w); err == nil {
		t.Error("inverted window accepted")
	}
}

func TestExportRoundTrip(t *testing.T) {
	st := store.New()
	st.Add(store.Input{Date: caldate.Date{Year: 2025, Month: 5, Day: 5}, Content: "소풍", Color: "#3b82f6"})
	st.Add(store.Input{
		Date:    caldate.Date{Year: 2025, Month: 5, Day: 1},
		EndDate: caldate.Date{Year: 2025, Month: 5, Day: 3},
		Content: "워크숍",
		Color:   "#22c55e",
	})

	out := Export(st.List(), "냉장고 달력", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	for _, want := range []string{"METHOD:PUBLISH", "UID:event-1@fridgecal", "DTSTART;VALUE=DATE:20250501", "DTEND;VALUE=DATE:20250504", "COLOR:#22c55e"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}

	events, err := Parse(Source{ID: "rt"}, []byte(out))
	if err != nil {
		t.Fatal(err)
	}
	res, _ := Expand(events, Source{}, YearWindow(2025, time.UTC))
	if len(res.Inputs) != 2 {
		t.Fatalf("round trip = %+v", res.Inputs)
	}
	ws := res.Inputs[0]
	if ws.Content != "워크숍" || ws.Date.String() != "2025-05-01" || ws.EndDate.String() != "2025-05-03" || ws.Color != "#22c55e" {
		t.Errorf("workshop = %+v", ws)
	}
}

func TestFetcherCachesAndFallsBack(t *testing.T) {
	var hits, conditional atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write(sample)
	}))

	f := NewFetcher(t.TempDir(), time.Second)
	src := Source{ID: "feed", URL: srv.URL + "/cal.ics?token=secret"}

	first, err := f.FetchOne(context.Background(), src)
	if err != nil || first.FromCache {
		t.Fatalf("first = %v, %v", first.FromCache, err)
	}
	second, err := f.FetchOne(context.Background(), src)
	if err != nil || !second.FromCache || conditional.Load() != 1 {
		t.Fatalf("second = %v, %v (conditional %d)", second.FromCache, err, conditional.Load())
	}

	srv.Close()
	third, err := f.FetchOne(context.Background(), src)
	if err != nil || !third.FromCache || len(third.Body) != len(sample) {
		t.Errorf("offline fallback = %v, %v", third.FromCache, err)
	}

	inputs, errs := f.Sync(context.Background(), []Source{src, {ID: "missing"}}, YearWindow(2025, time.UTC))
	if len(inputs) != 6 || len(errs) != 1 {
		t.Errorf("sync = %d inputs, errs %v", len(inputs), errs)
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.com/private/a.ics?token=abc"); got != "https://example.com/...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
	if got := redactURL("not a url"); got != "ics://...(redacted)" {
		t.Errorf("redactURL = %q", got)
	}
}
