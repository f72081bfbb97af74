package grid

// Style holds only visual parameters. It never changes which cells exist.
// Colors are #rrggbb.
type Style struct {
	ID    string `json:"id"`
	Label string `json:"label"`

	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	Sunday     string `json:"sunday"` // also used for holidays
	Saturday   string `json:"saturday"`
	Border     string `json:"border"`

	BorderWidth int     `json:"border_width"`
	Radius      int     `json:"radius"`
	FontScale   float64 `json:"font_scale"`
}

// DefaultStyleID is used when a requested style does not exist.
const DefaultStyleID = "minimal"

var Styles = []Style{
	{
		ID: "modern", Label: "모던",
		Background: "#f8fafc", Surface: "#ffffff", Text: "#0f172a", Muted: "#94a3b8",
		Sunday: "#ef4444", Saturday: "#3b82f6", Border: "#e2e8f0",
		BorderWidth: 1, Radius: 12, FontScale: 1,
	},
	{
		ID: "minimal", Label: "미니멀",
		Background: "#ffffff", Surface: "#ffffff", Text: "#111827", Muted: "#9ca3af",
		Sunday: "#dc2626", Saturday: "#2563eb", Border: "#ffffff",
		BorderWidth: 0, Radius: 0, FontScale: 1,
	},
	{
		ID: "colorful", Label: "컬러풀",
		Background: "#fef3c7", Surface: "#fff7ed", Text: "#7c2d12", Muted: "#fdba74",
		Sunday: "#e11d48", Saturday: "#7c3aed", Border: "#fdba74",
		BorderWidth: 2, Radius: 16, FontScale: 1.1,
	},
	{
		ID: "dark", Label: "다크",
		Background: "#0f172a", Surface: "#1e293b", Text: "#f1f5f9", Muted: "#475569",
		Sunday: "#f87171", Saturday: "#60a5fa", Border: "#334155",
		BorderWidth: 1, Radius: 10, FontScale: 1,
	},
	{
		ID: "grid", Label: "그리드",
		Background: "#ffffff", Surface: "#ffffff", Text: "#111827", Muted: "#d1d5db",
		Sunday: "#dc2626", Saturday: "#2563eb", Border: "#111827",
		BorderWidth: 2, Radius: 0, FontScale: 0.95,
	},
}

// StyleByID returns the style with the given id. Unknown ids resolve to
// DefaultStyleID with ok=false.
func StyleByID(id string) (Style, bool) {
	for _, s := range Styles {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range Styles {
		if s.ID == DefaultStyleID {
			return s, false
		}
	}
	return Styles[0], false
}
