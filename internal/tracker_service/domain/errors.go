package domain

import "errors"

var (
	// ErrNotFound indicates that the operation target id does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates a required field was empty or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidNumber indicates input that looks like a phone number but
	// does not denote a valid Russian mobile number.
	ErrInvalidNumber = errors.New("invalid russian phone number")
	// ErrNotPhoneNumber indicates input with too few digits to be a phone
	// number at all, as opposed to a malformed one.
	ErrNotPhoneNumber = errors.New("not a phone number")
	// ErrUnknownOperator indicates a phone referencing a dead operator id.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrUnknownPhone indicates a usage referencing a dead phone id.
	ErrUnknownPhone = errors.New("unknown phone")
	// ErrUnknownService indicates a usage referencing a dead service id.
	ErrUnknownService = errors.New("unknown service")
	// ErrDuplicatePhone indicates a normalized-number collision.
	ErrDuplicatePhone = errors.New("phone number already exists")
	// ErrDuplicateUsage indicates the (phone, service) pair is already recorded.
	ErrDuplicateUsage = errors.New("usage already recorded")
	// ErrHasDependents indicates a delete rejected because live rows still
	// reference the target.
	ErrHasDependents = errors.New("resource has dependents")
	// ErrStorage wraps failures of the underlying persistence layer.
	ErrStorage = errors.New("storage unavailable")
)
