/*
SPDX-FileCopyrightText: The Corral Authors

SPDX-License-Identifier: Apache-2.0
*/

package typederrors

import (
	"errors"
	"fmt"
)

// GenericError is an error structure containing common fields to be
// embedded by specific error types defined below
type GenericError struct {
	Message string
	Err     error
}

func (ge GenericError) Error() string {
	return ge.Message
}

func (ge GenericError) Unwrap() error {
	return ge.Err
}

// ValidationError covers bad inputs, malformed specs and constraint
// violations.  Actions failing with this kind are never retried.
type ValidationError struct {
	GenericError
}

func NewValidationError(err error, format string, args ...interface{}) error {
	return ValidationError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsValidationError(target error) bool {
	var e ValidationError
	return errors.As(target, &e)
}

// NotFoundError type
type NotFoundError struct {
	GenericError
}

func NewNotFoundError(err error, format string, args ...interface{}) error {
	return NotFoundError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsNotFoundError(target error) bool {
	var e NotFoundError
	return errors.As(target, &e)
}

// ConflictError type
type ConflictError struct {
	GenericError
}

func NewConflictError(err error, format string, args ...interface{}) error {
	return ConflictError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsConflictError(target error) bool {
	var e ConflictError
	return errors.As(target, &e)
}

// RetriableError marks transient failures (driver networking, 5xx, store
// unreachable) that callers may retry.
type RetriableError struct {
	GenericError
}

func NewRetriableError(err error, format string, args ...interface{}) error {
	return RetriableError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsRetriableError(target error) bool {
	var e RetriableError
	return errors.As(target, &e)
}

// LockBusyError indicates that an advisory lock is held by a live owner.
// This is not a failure; cluster actions translate it into a retry.
type LockBusyError struct {
	GenericError
}

func NewLockBusyError(err error, format string, args ...interface{}) error {
	return LockBusyError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsLockBusyError(target error) bool {
	var e LockBusyError
	return errors.As(target, &e)
}

// PolicyCheckError carries a policy veto raised at a BEFORE/AFTER
// checkpoint.
type PolicyCheckError struct {
	GenericError
}

func NewPolicyCheckError(err error, format string, args ...interface{}) error {
	return PolicyCheckError{
		GenericError: GenericError{fmt.Sprintf(format, args...), err},
	}
}

func IsPolicyCheckError(target error) bool {
	var e PolicyCheckError
	return errors.As(target, &e)
}
