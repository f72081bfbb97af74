package recipes

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoIngredients is returned before any request when nothing is selected.
var ErrNoIngredients = errors.New("recipes: no ingredients selected")

// Kind classifies a failed backend call.
type Kind int

const (
	// KindConnect means no response was received.
	KindConnect Kind = iota + 1
	// KindStatus means the backend answered with a non-2xx status.
	KindStatus
	// KindDecode means the body was not the expected JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// RequestError is the uniform error for backend calls. Its message always
// carries the URL, and the HTTP status when one was received.
type RequestError struct {
	Kind    Kind
	Method  string
	URL     string
	Status  int
	Preview string
	Err     error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindConnect:
		return fmt.Sprintf("recipes: %s %s: cannot reach backend: %v", e.Method, e.URL, e.Err)
	case KindStatus:
		msg := fmt.Sprintf("recipes: %s %s: HTTP %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
		if e.Preview != "" {
			msg += ": " + e.Preview
		}
		return msg
	case KindDecode:
		return fmt.Sprintf("recipes: %s %s: HTTP %d: invalid JSON (%v): %q", e.Method, e.URL, e.Status, e.Err, e.Preview)
	default:
		return fmt.Sprintf("recipes: %s %s: %v", e.Method, e.URL, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// Retryable reports whether a manual retry may succeed.
func (e *RequestError) Retryable() bool {
	switch e.Kind {
	case KindConnect:
		return true
	case KindStatus:
		return e.Status >= 500 || e.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable RequestError.
func IsRetryable(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Retryable()
}
