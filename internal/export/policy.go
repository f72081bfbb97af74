package export

import "time"

// Policy controls debounce length and capture resolution. Constrained
// viewports wait longer and capture at a lower scale to bound capture cost.
type Policy struct {
	Name        string        `json:"name"`
	Debounce    time.Duration `json:"debounce"`
	Scale       float64       `json:"scale"`
	IdleMaxWait time.Duration `json:"idle_max_wait"`
}

// MobileBreakpoint is the viewport width (CSS px) below which MobilePolicy
// applies.
const MobileBreakpoint = 768

var (
	DesktopPolicy = Policy{
		Name:        "desktop",
		Debounce:    1500 * time.Millisecond,
		Scale:       2,
		IdleMaxWait: 1500 * time.Millisecond,
	}
	MobilePolicy = Policy{
		Name:        "mobile",
		Debounce:    2000 * time.Millisecond,
		Scale:       1,
		IdleMaxWait: 1500 * time.Millisecond,
	}
)

// PolicyForViewport picks MobilePolicy for widths below MobileBreakpoint.
// A non-positive width (unknown) is treated as desktop.
func PolicyForViewport(width int) Policy {
	if width > 0 && width < MobileBreakpoint {
		return MobilePolicy
	}
	return DesktopPolicy
}
