package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrSymbolNotSupported = errors.New("symbol_not_supported")
	ErrSymbolNotFound     = errors.New("symbol_not_found")
	ErrInvalidOrder       = errors.New("invalid_order")
)
