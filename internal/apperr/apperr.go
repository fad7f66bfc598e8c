package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindConflict
	KindInvalidState
	KindValidation
)

// Machine-readable error codes.
const (
	CodeGroupNotFound      = "group_not_found"
	CodeMessageNotFound    = "message_not_found"
	CodeMembershipNotFound = "membership_not_found"
	CodeNotAMember         = "not_a_member"
	CodeForbidden          = "forbidden"
	CodeOwnerImmune        = "owner_immune"
	CodeSenderOnly         = "sender_only"
	CodeDuplicateMember    = "duplicate_member"
	CodeGroupFull          = "group_full"
	CodeOwnerCannotLeave   = "owner_cannot_leave"
	CodeGroupDeleted       = "group_deleted"
	CodeMessageDeleted     = "message_deleted"
	CodeCrossGroupReply    = "cross_group_reply"
	CodeInvalidTransition  = "invalid_transition"
	CodeJoinNotAllowed     = "join_not_allowed"
	CodeEmptyName          = "empty_name"
	CodeEmptyContent       = "empty_content"
	CodeBadSettings        = "bad_settings"
	CodeImmutableField     = "immutable_field"
)

// Error is the typed error returned by every chat core mutation and query.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *Error     { return newError(KindNotFound, code, message) }
func Unauthorized(code, message string) *Error { return newError(KindUnauthorized, code, message) }
func Conflict(code, message string) *Error     { return newError(KindConflict, code, message) }
func InvalidState(code, message string) *Error { return newError(KindInvalidState, code, message) }
func Validation(code, message string) *Error   { return newError(KindValidation, code, message) }

// KindOf extracts the Kind from err, KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// CodeOf extracts the machine code from err, empty for foreign errors.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
