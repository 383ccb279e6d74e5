package oolong

import (
	"errors"
	"fmt"
)

// TransportError indicates that a request to the secret server failed at the
// network or HTTP level. StatusCode is zero when the failure happened before a
// response was received.
type TransportError struct {
	Op         string
	Path       string
	StatusCode int
	Err        error
}

// NewTransportError returns a new error indicating that the given operation
// against the given path failed, optionally with the HTTP status code of the
// response.
func NewTransportError(op, path string, statusCode int, err error) *TransportError {
	return &TransportError{Op: op, Path: path, StatusCode: statusCode, Err: err}
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s '%s': status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s '%s': %v", e.Op, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError returns whether the error or any error it wraps indicates a
// network or HTTP-level failure against the secret server.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// SecretNotFoundError indicates that no secret exists at the requested path.
type SecretNotFoundError struct {
	Path string
}

// NewSecretNotFoundError returns a new error indicating that no secret exists
// at the given path.
func NewSecretNotFoundError(path string) *SecretNotFoundError {
	return &SecretNotFoundError{Path: path}
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret '%s' not found", e.Path)
}

// IsSecretNotFoundError returns whether the error or any error it wraps
// indicates that a secret was not found.
func IsSecretNotFoundError(err error) bool {
	var notFoundErr *SecretNotFoundError
	return errors.As(err, &notFoundErr)
}

// SecretReadError indicates that reading a secret failed for a reason other
// than the secret not existing.
type SecretReadError struct {
	Path string
	Err  error
}

// NewSecretReadError returns a new error indicating that reading the secret at
// the given path failed.
func NewSecretReadError(path string, err error) *SecretReadError {
	return &SecretReadError{Path: path, Err: err}
}

func (e *SecretReadError) Error() string {
	return fmt.Sprintf("reading secret '%s': %v", e.Path, e.Err)
}

func (e *SecretReadError) Unwrap() error { return e.Err }

// IsSecretReadError returns whether the error or any error it wraps indicates
// a failed secret read.
func IsSecretReadError(err error) bool {
	var readErr *SecretReadError
	return errors.As(err, &readErr)
}

// SecretWriteError indicates that writing a secret failed.
type SecretWriteError struct {
	Path string
	Err  error
}

// NewSecretWriteError returns a new error indicating that writing the secret
// at the given path failed.
func NewSecretWriteError(path string, err error) *SecretWriteError {
	return &SecretWriteError{Path: path, Err: err}
}

func (e *SecretWriteError) Error() string {
	return fmt.Sprintf("writing secret '%s': %v", e.Path, e.Err)
}

func (e *SecretWriteError) Unwrap() error { return e.Err }

// IsSecretWriteError returns whether the error or any error it wraps indicates
// a failed secret write.
func IsSecretWriteError(err error) bool {
	var writeErr *SecretWriteError
	return errors.As(err, &writeErr)
}

// SecretDeleteError indicates that deleting a secret failed.
type SecretDeleteError struct {
	Path string
	Err  error
}

// NewSecretDeleteError returns a new error indicating that deleting the secret
// at the given path failed.
func NewSecretDeleteError(path string, err error) *SecretDeleteError {
	return &SecretDeleteError{Path: path, Err: err}
}

func (e *SecretDeleteError) Error() string {
	return fmt.Sprintf("deleting secret '%s': %v", e.Path, e.Err)
}

func (e *SecretDeleteError) Unwrap() error { return e.Err }

// IsSecretDeleteError returns whether the error or any error it wraps
// indicates a failed secret delete.
func IsSecretDeleteError(err error) bool {
	var deleteErr *SecretDeleteError
	return errors.As(err, &deleteErr)
}
