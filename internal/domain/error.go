package domain

import "errors"

var (
	// ErrInvalidArgument indicates a rejected identifier, index range or curve.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedProperty indicates a property kind a stream cannot get or set.
	ErrUnsupportedProperty = errors.New("unsupported property")

	// ErrNotFound indicates that no stream or volume profile matches the query.
	ErrNotFound = errors.New("not found")

	// ErrFrozen indicates a mutation attempted after configuration completed.
	ErrFrozen = errors.New("stream table is frozen")
)
