package domain

import (
	"errors"
	"fmt"
)

// ErrorCode 稳定的业务错误码
// API consumers branch on these codes, never on message text.
type ErrorCode string

const (
	// Not-found family (assert-by-token paths).
	ErrInvalidSiteToken          ErrorCode = "InvalidSiteToken"
	ErrInvalidZoneToken          ErrorCode = "InvalidZoneToken"
	ErrInvalidSpecificationToken ErrorCode = "InvalidSpecificationToken"
	ErrInvalidCommandToken       ErrorCode = "InvalidCommandToken"
	ErrInvalidStatusCode         ErrorCode = "InvalidStatusCode"
	ErrInvalidHardwareID         ErrorCode = "InvalidHardwareId"
	ErrInvalidAssignmentToken    ErrorCode = "InvalidAssignmentToken"
	ErrInvalidGroupToken         ErrorCode = "InvalidGroupToken"
	ErrInvalidStreamID           ErrorCode = "InvalidStreamId"

	// Duplicate-key family (store uniqueness violations, translated).
	ErrDuplicateSiteToken          ErrorCode = "DuplicateSiteToken"
	ErrDuplicateZoneToken          ErrorCode = "DuplicateZoneToken"
	ErrDuplicateSpecificationToken ErrorCode = "DuplicateSpecificationToken"
	ErrDuplicateCommandName        ErrorCode = "DuplicateCommandName"
	ErrDuplicateStatusCode         ErrorCode = "DuplicateStatusCode"
	ErrDuplicateHardwareID         ErrorCode = "DuplicateHardwareId"
	ErrDuplicateAssignmentToken    ErrorCode = "DuplicateAssignmentToken"
	ErrDuplicateGroupToken         ErrorCode = "DuplicateGroupToken"
	ErrDuplicateGroupElement       ErrorCode = "DuplicateGroupElement"
	ErrDuplicateStreamID           ErrorCode = "DuplicateStreamId"

	// Invalid-reference family (dangling cross-entity references).
	ErrInvalidSpecificationReference ErrorCode = "InvalidSpecificationReference"
	ErrInvalidSiteReference          ErrorCode = "InvalidSiteReference"
	ErrInvalidAssetReference         ErrorCode = "InvalidAssetReference"

	// Invariant-violation family (business rules).
	ErrDeviceAlreadyAssigned           ErrorCode = "DeviceAlreadyAssigned"
	ErrDeviceCannotBeDeletedIfAssigned ErrorCode = "DeviceCanNotBeDeletedIfAssigned"
	ErrDeviceElementMappingExists      ErrorCode = "DeviceElementMappingExists"
	ErrAssignmentNotReleased           ErrorCode = "CanNotDeleteActiveAssignment"
	ErrInvalidStreamIDFormat           ErrorCode = "InvalidStreamIdFormat"

	// Store transport failures, distinct from not-found.
	ErrStoreUnavailable ErrorCode = "StoreUnavailable"
)

// Error 带稳定错误码的业务错误
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two coded errors by code, so callers can use
// errors.Is(err, domain.NewError(domain.ErrDuplicateHardwareID, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError 创建业务错误
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError 包装底层错误并附加错误码
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf returns the stable code carried by err, or empty if err is not a
// registry error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
