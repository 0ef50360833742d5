package resection

import (
	"errors"
	"fmt"
)

// Kind classifies why a resection could not be computed. Every kind is
// recoverable by the caller; none leaves the engine in a bad state.
type Kind int

const (
	KindUnknown Kind = iota
	// KindZeroBaseline: the two stations coincide.
	KindZeroBaseline
	// KindDegenerateTriangle: an interior angle is out of (0, 180), or the
	// angle at FOS has a near-zero sine.
	KindDegenerateTriangle
	// KindParallelRays: the two observed directions never cross.
	KindParallelRays
	// KindNoSphericalIntersection: the great-circle paths diverge.
	KindNoSphericalIntersection
	// KindConversionOutOfDomain: a point lies outside the projection's domain.
	KindConversionOutOfDomain
	// KindInvalidInput: missing or out-of-range input values.
	KindInvalidInput
)

var kindNames = [...]string{
	KindUnknown:                 "unknown",
	KindZeroBaseline:            "zero_baseline",
	KindDegenerateTriangle:      "degenerate_triangle",
	KindParallelRays:            "parallel_rays",
	KindNoSphericalIntersection: "no_spherical_intersection",
	KindConversionOutOfDomain:   "conversion_out_of_domain",
	KindInvalidInput:            "invalid_input",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Geometric reports whether k describes input that is well-formed but
// describes a configuration with no unique FOS.
func (k Kind) Geometric() bool {
	switch k {
	case KindZeroBaseline, KindDegenerateTriangle, KindParallelRays,
		KindNoSphericalIntersection, KindConversionOutOfDomain:
		return true
	}
	return false
}

// Error is the single error type returned by Engine.Solve.
type Error struct {
	Kind   Kind
	Msg    string
	Angles *Angles // set for degenerate triangles
	Err    error   // underlying sentinel, if any
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Angles != nil {
		msg = fmt.Sprintf("%s: A=%.6f°, B=%.6f°, FOS=%.6f°", msg, e.Angles.A, e.Angles.B, e.Angles.FOS)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, &resection.Error{Kind: resection.KindParallelRays}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func invalidInput(format string, args ...any) *Error {
	return newError(KindInvalidInput, nil, format, args...)
}
