package imagepkg

import (
	"errors"
	"fmt"
)

// Kind classifies a render failure for logs. Callers outside the package
// treat every kind the same way.
type Kind string

const (
	KindAsset  Kind = "asset"
	KindFetch  Kind = "fetch"
	KindDecode Kind = "decode"
	KindEncode Kind = "encode"
)

// RenderError is returned by Compositor.Render for any failure.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func renderErr(kind Kind, format string, args ...any) *RenderError {
	return &RenderError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from err, or "" when err is not a RenderError.
func KindOf(err error) Kind {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
