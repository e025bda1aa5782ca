package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned for text that is not an http(s) link
	ErrInvalidURL = errors.New("invalid url")
	// ErrTooLarge is returned when a file exceeds MaxDocumentSize
	ErrTooLarge = errors.New("file exceeds size ceiling")
	// ErrEmptyResult is returned when extraction produced no files
	ErrEmptyResult = errors.New("extraction produced no files")
	// ErrNotFound is returned when an update or delete matched no row
	ErrNotFound = errors.New("not found")
)

// StoreError wraps any failure of the persistent store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ExtractionError wraps a failure of the external extraction tool
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// DeliveryErrorKind categorises a failed send
type DeliveryErrorKind int

const (
	DeliveryUnknown DeliveryErrorKind = iota
	DeliveryTooLarge
	DeliveryRejected
	DeliveryBlocked
)

func (k DeliveryErrorKind) String() string {
	switch k {
	case DeliveryTooLarge:
		return "too_large"
	case DeliveryRejected:
		return "rejected"
	case DeliveryBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// DeliveryError is a categorised failure to send a file to the chat
type DeliveryError struct {
	Kind DeliveryErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery %s: %v", e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
