// Package errs is the structured error type shared across the engine.
//
// The taxonomy is closed: InvalidArgument, Immutable, UnknownId, EmptyIndex,
// Unknown, and the Logic wrapper used by the snippet builder. Runtime is the
// supertype category that EmptyIndex, UnknownId, and Immutable all belong to.
package errs

import "fmt"

// Category classifies an Error by kind, not by which component raised it.
type Category string

const (
	// InvalidArgument is a programmer error at an API boundary: unknown
	// table key, malformed criteria, etc.
	InvalidArgument Category = "invalid_argument"
	// Immutable is raised when a frozen ResultSet is mutated.
	Immutable Category = "immutable"
	// UnknownId is raised when an external id is missing from the index
	// or from a result set.
	UnknownId Category = "unknown_id"
	// EmptyIndex means the schema is absent or stale — the backend
	// reported an "unknown table"/"unknown column" condition.
	EmptyIndex Category = "empty_index"
	// Unknown is any backend error not matched by the categories above.
	Unknown Category = "unknown"
	// Logic wraps Immutable/UnknownId raised against an already-frozen
	// result set: these indicate a pipeline bug, not a recoverable
	// condition, and the snippet builder re-labels them as such.
	Logic Category = "logic"
)

// runtimeCategories is the set of categories considered subtypes of the
// Runtime supertype.
var runtimeCategories = map[Category]bool{
	EmptyIndex: true,
	UnknownId:  true,
	Immutable:  true,
}

// Error is the engine's single structured error type. Errors raised by the
// operations of internal/store, internal/index, internal/resultset, and
// internal/snippet are *Error values so callers can switch on Category; the
// storage constructors (store.NewWithBackend and the dialect openers) return
// plain errors.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Category == t.Category
}

// IsRuntime reports whether the category is a Runtime subtype
// (EmptyIndex, UnknownId, or Immutable).
func (e *Error) IsRuntime() bool {
	return runtimeCategories[e.Category]
}

// New builds an Error of the given category.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Wrap builds an Error of the given category around an existing error,
// preserving it as Cause. Returns nil if err is nil.
func Wrap(category Category, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Message: message, Cause: err}
}

// InvalidArgumentf builds an InvalidArgument error with a formatted message.
func InvalidArgumentf(format string, args ...any) *Error {
	return New(InvalidArgument, fmt.Sprintf(format, args...))
}

// ImmutableErr builds an Immutable error describing a mutation attempted
// against a frozen result set.
func ImmutableErr(op string) *Error {
	return New(Immutable, fmt.Sprintf("result set is frozen: %s", op))
}

// UnknownIdErr builds an UnknownId error for a missing external id.
func UnknownIdErr(externalID string) *Error {
	return New(UnknownId, fmt.Sprintf("unknown external id: %s", externalID))
}

// EmptyIndexErr wraps a backend error as EmptyIndex.
func EmptyIndexErr(cause error) *Error {
	return Wrap(EmptyIndex, "schema absent or stale", cause)
}

// UnknownErr wraps an unclassified backend error.
func UnknownErr(cause error) *Error {
	return Wrap(Unknown, "backend error", cause)
}

// AsLogic re-labels an Immutable/UnknownId error raised against a frozen
// result set as a Logic error — a pipeline bug, not a recoverable condition.
func AsLogic(err error) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	if e.Category != Immutable && e.Category != UnknownId {
		return err
	}
	return &Error{Category: Logic, Message: e.Message, Cause: e}
}

// CategoryOf extracts the Category from err, or "" if err is not an *Error.
func CategoryOf(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}

// Is reports whether err is an *Error of the given category.
func Is(err error, category Category) bool {
	return CategoryOf(err) == category
}
