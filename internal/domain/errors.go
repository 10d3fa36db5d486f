package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers branch with errors.Is(err, domain.ErrNotFound) and
// read the details with errors.As(err, &*domain.Error).
var (
	ErrValidation               = errors.New("validation failed")
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrConflictingActiveSession = errors.New("conflicting active session")
	ErrConflictingActiveEntry   = errors.New("conflicting active time entry")
	ErrConflictingActiveBreak   = errors.New("conflicting active break")
	ErrInvalidTransition        = errors.New("invalid transition")
	ErrAlreadyStopped           = errors.New("already stopped")
	ErrInvalidBreakType         = errors.New("invalid break type")
	ErrHierarchyDepthExceeded   = errors.New("hierarchy depth exceeded")
	ErrInvalidParentState       = errors.New("invalid parent state")
)

// Error carries the kind of a domain failure plus whatever context applies.
type Error struct {
	Kind    error
	Entity  string
	ID      string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var parts []string
	if e.Entity != "" {
		if e.ID != "" {
			parts = append(parts, fmt.Sprintf("%s %s", e.Entity, e.ID))
		} else {
			parts = append(parts, e.Entity)
		}
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if len(parts) == 0 {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), strings.Join(parts, ": "))
}

func (e *Error) Unwrap() error { return e.Kind }

// Is lets a stop on an already stopped timer or break also count as an
// invalid transition.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidTransition && e.Kind == ErrAlreadyStopped
}

// kindOf returns the kind sentinel of a domain error, or nil.
func kindOf(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return nil
}

func ValidationFailed(field, message string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func NotFound(entity, id string) error {
	return &Error{Kind: ErrNotFound, Entity: entity, ID: id}
}

func Forbidden(entity, id string) error {
	return &Error{Kind: ErrForbidden, Entity: entity, ID: id}
}

func ConflictingActiveSession(activeID string) error {
	return &Error{Kind: ErrConflictingActiveSession, Entity: "work session", ID: activeID, Message: "user already has an open session"}
}

func ConflictingActiveEntry(activeID string) error {
	return &Error{Kind: ErrConflictingActiveEntry, Entity: "time entry", ID: activeID, Message: "user already has a running timer"}
}

func ConflictingActiveBreak(activeID string) error {
	return &Error{Kind: ErrConflictingActiveBreak, Entity: "break", ID: activeID, Message: "user is already on a break"}
}

func InvalidTransition(entity, id, from, op string) error {
	return &Error{Kind: ErrInvalidTransition, Entity: entity, ID: id, Message: fmt.Sprintf("cannot %s from %s", op, from)}
}

func AlreadyStopped(entity, id string) error {
	return &Error{Kind: ErrAlreadyStopped, Entity: entity, ID: id}
}

func InvalidBreakType(t BreakType) error {
	return &Error{Kind: ErrInvalidBreakType, Field: "type", Message: fmt.Sprintf("%q is not a break type", string(t))}
}

func HierarchyDepthExceeded(parentID string) error {
	return &Error{Kind: ErrHierarchyDepthExceeded, Entity: "task", ID: parentID, Message: "sub-tasks can not have sub-tasks"}
}

func InvalidParentState(parentID string, status TaskStatus) error {
	return &Error{Kind: ErrInvalidParentState, Entity: "task", ID: parentID, Message: fmt.Sprintf("parent is %s", status)}
}
