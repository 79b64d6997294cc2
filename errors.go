// Package sqlogic provides shared configuration and dialect handling for the
// SQL logic test runner.
package sqlogic

import "errors"

// Common errors used throughout the sqlogic package
var (
	// ErrUnknownEnvironment indicates the requested database environment is not configured.
	ErrUnknownEnvironment = errors.New("database environment not found in configuration")
	// ErrDriverNotConfigured indicates a database entry lacks a driver name.
	ErrDriverNotConfigured = errors.New("database entry has no driver configured")
	// ErrConnectionNotConfigured indicates a database entry lacks a connection string.
	ErrConnectionNotConfigured = errors.New("database entry has no connection string configured")
	// ErrUnknownDialect indicates a dialect name is not one of the supported set.
	ErrUnknownDialect = errors.New("unknown dialect (supported: postgres, mysql, sqlite)")
)
