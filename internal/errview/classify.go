// Package errview classifies arbitrary caught values from the web layer and
// renders them as a minimal standalone error page.
package errview

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// FallbackSummary is shown when a caught value has no recognizable shape.
const FallbackSummary = "An unexpected error occurred"

// RouteError is a structured failure raised by the routing layer. It carries
// an HTTP status and an optional payload, and satisfies error so handlers can
// return or panic with it directly.
type RouteError struct {
	Status     int
	StatusText string
	Payload    Payload
}

// Payload is the optional structured body of a RouteError.
type Payload struct {
	Message string
}

// NewRouteError builds a RouteError, filling StatusText from the standard
// status table when absent.
func NewRouteError(status int, message string) *RouteError {
	return &RouteError{
		Status:     status,
		StatusText: http.StatusText(status),
		Payload:    Payload{Message: message},
	}
}

func (e *RouteError) Error() string {
	if e.Payload.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.StatusText, e.Payload.Message)
	}
	return fmt.Sprintf("%d %s", e.Status, e.StatusText)
}

// Tracer is implemented by errors that carry free-form diagnostic text
// alongside their message.
type Tracer interface {
	Trace() string
}

// Kind discriminates the classification variants.
type Kind int

const (
	KindUnknown Kind = iota
	KindRouteError
	KindGenericFailure
)

// Classified is the tagged result of inspecting a caught value.
type Classified struct {
	Kind    Kind
	Route   *RouteError // set when Kind == KindRouteError
	Message string      // set when Kind == KindGenericFailure
	Trace   string      // optional diagnostic text for KindGenericFailure
	Raw     any         // the original caught value
}

// DisplayError is the display-ready projection of a classified value.
// Summary is never empty.
type DisplayError struct {
	Summary string
	Details string
}

// Classify inspects a caught value and constructs the matching variant.
// It is total: any value, including nil and malformed error implementations,
// yields a usable result without panicking.
func Classify(v any) Classified {
	c := Classified{Kind: KindUnknown, Raw: v}

	switch val := v.(type) {
	case nil:
		return c
	case *RouteError:
		if val == nil {
			return c
		}
		c.Kind = KindRouteError
		c.Route = val
		return c
	case RouteError:
		c.Kind = KindRouteError
		c.Route = &val
		return c
	case error:
		c.Kind = KindGenericFailure
		c.Message = safeMessage(val)
		if tr, ok := val.(Tracer); ok {
			c.Trace = safeTrace(tr)
		}
		return c
	default:
		return c
	}
}

// Display derives the user-facing error from a classified value.
func Display(c Classified) DisplayError {
	switch c.Kind {
	case KindRouteError:
		text := c.Route.StatusText
		if text == "" {
			text = http.StatusText(c.Route.Status)
		}
		summary := strings.TrimSpace(fmt.Sprintf("%d %s", c.Route.Status, text))
		return DisplayError{Summary: summary, Details: c.Route.Payload.Message}
	case KindGenericFailure:
		if c.Message == "" {
			return DisplayError{Summary: FallbackSummary}
		}
		return DisplayError{Summary: c.Message, Details: c.Trace}
	default:
		return DisplayError{Summary: FallbackSummary}
	}
}

// LogCaught records the raw caught value on the diagnostic channel. The web
// boundary calls this before classification for every caught value. It never
// panics and never modifies the value.
func LogCaught(log *slog.Logger, v any) {
	defer func() {
		_ = recover()
	}()
	if log == nil {
		log = slog.Default()
	}
	log.Error("Caught error in web boundary", "value", fmt.Sprintf("%+v", v))
}

// safeMessage extracts err.Error() without trusting the implementation.
func safeMessage(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()
	return err.Error()
}

func safeTrace(tr Tracer) (trace string) {
	defer func() {
		if recover() != nil {
			trace = ""
		}
	}()
	return tr.Trace()
}
