package capture

import (
	"html/template"
	"io"

	"fridgecal/internal/grid"
)

// pageTemplate is the export view. The root gets data-ready="true" once
// fonts are loaded and a frame has been painted; the Chromium backend waits
// on that marker.
var pageTemplate = template.Must(template.New("calendar").Parse(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.L.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: {{.L.Style.Background}}; }
  #calendar-export {
    width: {{.W}}px; height: {{.H}}px; box-sizing: border-box;
    padding: 64px 48px; display: flex; flex-direction: column;
    background: {{.L.Style.Background}}; color: {{.L.Style.Text}};
    font-family: "Pretendard", "Noto Sans KR", "Apple SD Gothic Neo", sans-serif;
    font-size: {{.FontPx}}px;
  }
  .title { font-size: 2.6em; font-weight: 700; margin-bottom: 32px; }
  .head, .body { display: grid; grid-template-columns: repeat(7, 1fr); gap: 8px; }
  .head div { text-align: center; font-weight: 600; padding: 12px 0; color: {{.L.Style.Muted}}; }
  .body { flex: 1; grid-template-rows: repeat(6, 1fr); }
  .cell {
    background: {{.L.Style.Surface}}; border: {{.L.Style.BorderWidth}}px solid {{.L.Style.Border}};
    border-radius: {{.L.Style.Radius}}px; padding: 10px; position: relative; overflow: hidden;
  }
  .cell.empty { background: transparent; border-color: transparent; }
  .num { font-weight: 700; font-size: 1.3em; }
  .sun .num, .head .sun { color: {{.L.Style.Sunday}}; }
  .sat .num, .head .sat { color: {{.L.Style.Saturday}}; }
  .hol { display: block; font-size: 0.7em; color: {{.L.Style.Sunday}}; }
  .lunar { position: absolute; top: 10px; right: 10px; font-size: 0.65em; color: {{.L.Style.Muted}}; }
  .events { position: absolute; left: 10px; bottom: 10px; display: flex; gap: 6px; align-items: center; }
  .dot { width: 18px; height: 18px; border-radius: 50%; display: inline-block; }
  .more { font-size: 0.75em; color: {{.L.Style.Muted}}; }
</style>
</head>
<body>
<div id="calendar-export" class="calendar-style-{{.L.Style.ID}}" data-ready="false">
  <div class="title">{{.L.Title}}</div>
  <div class="head">
    {{- range $i, $w := .L.Weekdays}}
    <div class="{{if eq $i 0}}sun{{else if eq $i 6}}sat{{end}}">{{$w}}</div>
    {{- end}}
  </div>
  <div class="body">
    {{- range .L.Cells}}
    {{- if .Empty}}
    <div class="cell empty"></div>
    {{- else}}
    <div class="cell{{if or .Holiday (eq .Weekday 0)}} sun{{else if eq .Weekday 6}} sat{{end}}">
      <span class="num">{{.Day}}</span>
      {{- with .Holiday}}<span class="hol">{{.Name}}</span>{{if .Lunar}}<span class="lunar">{{.Lunar}}</span>{{end}}{{end}}
      {{- if .Events}}
      <div class="events">
        {{- range .Markers}}<span class="dot" style="background-color: {{.Color}}" title="{{.Content}}"></span>{{end}}
        {{- with .Overflow}}<span class="more">+{{.}}</span>{{end}}
      </div>
      {{- end}}
    </div>
    {{- end}}
    {{- end}}
  </div>
</div>
<script>
  (function () {
    var root = document.getElementById("calendar-export");
    var done = function () {
      requestAnimationFrame(function () { root.setAttribute("data-ready", "true"); });
    };
    if (document.fonts && document.fonts.ready) { document.fonts.ready.then(done); } else { done(); }
  })();
</script>
</body>
</html>
`))

type pageData struct {
	L      grid.Layout
	W      int
	H      int
	FontPx int
}

// RenderHTML writes the standalone HTML view of l sized to opts (CSS px).
// The same markup backs the live view served by the web UI.
func RenderHTML(w io.Writer, l grid.Layout, opts Options) error {
	fs := l.Style.FontScale
	if fs <= 0 {
		fs = 1
	}
	return pageTemplate.Execute(w, pageData{
		L:      l,
		W:      opts.Width,
		H:      opts.Height,
		FontPx: int(32 * fs),
	})
}
