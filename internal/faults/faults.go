// Package faults defines the error taxonomy shared by the generator, the placer
// and the world model.
package faults

import (
	"errors"
	"fmt"
)

// Kind represents the category of a failure.
type Kind string

const (
	// KindGeneration indicates layout constraints could not be met within the attempt cap.
	KindGeneration Kind = "generation"
	// KindUnsolvableLevel indicates entities could not be placed so that the level is solvable.
	KindUnsolvableLevel Kind = "unsolvable_level"
	// KindInvalidKey indicates a key that is not held or does not open the door.
	KindInvalidKey Kind = "invalid_key"
	// KindAlreadyUnlocked indicates an unlock was attempted on an open door.
	KindAlreadyUnlocked Kind = "already_unlocked"
	// KindInconsistentProgression indicates an internal invariant was broken.
	KindInconsistentProgression Kind = "inconsistent_progression"
	// KindNotFound indicates a level, entity or door does not exist.
	KindNotFound Kind = "not_found"
	// KindInvalidConfig indicates configuration values that cannot be used.
	KindInvalidConfig Kind = "invalid_config"
	// KindStorage indicates a snapshot could not be read or written.
	KindStorage Kind = "storage"
)

// NoLevel is used for errors that are not tied to a level.
const NoLevel = -1

// Error is the base error type for the module.
type Error struct {
	Kind    Kind
	Level   int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Level != NoLevel {
		msg = fmt.Sprintf("level %d: %s", e.Level, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrGeneration              = &Error{Kind: KindGeneration, Level: NoLevel}
	ErrUnsolvableLevel         = &Error{Kind: KindUnsolvableLevel, Level: NoLevel}
	ErrInvalidKey              = &Error{Kind: KindInvalidKey, Level: NoLevel}
	ErrAlreadyUnlocked         = &Error{Kind: KindAlreadyUnlocked, Level: NoLevel}
	ErrInconsistentProgression = &Error{Kind: KindInconsistentProgression, Level: NoLevel}
	ErrNotFound                = &Error{Kind: KindNotFound, Level: NoLevel}
	ErrInvalidConfig           = &Error{Kind: KindInvalidConfig, Level: NoLevel}
	ErrStorage                 = &Error{Kind: KindStorage, Level: NoLevel}
)

// Generationf creates a generation failure for the given level.
func Generationf(level int, format string, args ...interface{}) error {
	return &Error{Kind: KindGeneration, Level: level, Message: fmt.Sprintf(format, args...)}
}

// Unsolvablef creates an unsolvable-level failure for the given level.
func Unsolvablef(level int, format string, args ...interface{}) error {
	return &Error{Kind: KindUnsolvableLevel, Level: level, Message: fmt.Sprintf(format, args...)}
}

// InvalidKeyf creates an invalid key error.
func InvalidKeyf(level int, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidKey, Level: level, Message: fmt.Sprintf(format, args...)}
}

// AlreadyUnlockedf creates an already-unlocked error.
func AlreadyUnlockedf(level int, format string, args ...interface{}) error {
	return &Error{Kind: KindAlreadyUnlocked, Level: level, Message: fmt.Sprintf(format, args...)}
}

// Inconsistentf creates an inconsistent progression fault.
func Inconsistentf(format string, args ...interface{}) error {
	return &Error{Kind: KindInconsistentProgression, Level: NoLevel, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error.
func NotFoundf(level int, format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Level: level, Message: fmt.Sprintf(format, args...)}
}

// InvalidConfigf creates an invalid configuration error.
func InvalidConfigf(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidConfig, Level: NoLevel, Message: fmt.Sprintf(format, args...)}
}

// WrapStorage wraps an error as a storage error.
func WrapStorage(message string, err error) error {
	return &Error{Kind: KindStorage, Level: NoLevel, Message: message, Err: err}
}

// KindOf returns the kind of err, or the empty Kind if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Recoverable reports whether the caller can retry or continue after err.
// Inconsistent progression means a bug in the core and is never recoverable.
func Recoverable(err error) bool {
	return KindOf(err) != KindInconsistentProgression
}

// LevelOf returns the level err refers to, or NoLevel.
func LevelOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Level
	}
	return NoLevel
}

// Exhausted wraps the last failure of a retried operation. The result keeps
// the kind of the last failure.
func Exhausted(level, attempts int, last error) error {
	return &Error{
		Kind:    KindOf(last),
		Level:   level,
		Message: fmt.Sprintf("gave up after %d attempts", attempts),
		Err:     last,
	}
}
