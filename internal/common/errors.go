// Package common defines shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// repository specific errors
	ErrNotFound = errors.New("not found")

	// delete coordinator: a batch is already running on this coordinator
	ErrDeleteInProgress = errors.New("delete batch already in progress")

	// transfer engine lifecycle
	ErrEngineClosed = errors.New("transfer engine closed")

	// validation
	ErrEmptyArgument = errors.New("empty argument")
)
