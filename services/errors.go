// Package services implements the application's use cases on top of the
// stores. Every failure it returns is an *Error carrying a Kind that the HTTP
// layer maps onto a status code.
package services

import (
	"errors"
	"fmt"
	"go-food-ordering/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind classifies a failure
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error is a classified failure with a message safe to show to users
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUpstream for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}

// IsKind reports whether err is an *Error of kind k
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func validationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func authError(msg string) error       { return &Error{Kind: KindAuth, Message: msg} }
func forbiddenError(msg string) error  { return &Error{Kind: KindForbidden, Message: msg} }
func notFoundError(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }

func upstreamError(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, validationError("Invalid " + what)
	}
	return id, nil
}

// Caller is the authenticated principal a request acts as
type Caller struct {
	ID   primitive.ObjectID
	Role string
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }
