package domain

import "errors"

var (
	// ErrListingNotFound indicates the requested listing does not exist.
	ErrListingNotFound = errors.New("listing not found")
	// ErrInvalidInput indicates a malformed or out-of-range parameter; the
	// message names the offending field. Raised before any store access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCursor indicates an undecodable pagination token or a cursor
	// carrying a malformed identity reference.
	ErrInvalidCursor = errors.New("invalid cursor")
	// ErrForbidden indicates the caller is neither the owner nor an admin.
	ErrForbidden = errors.New("action forbidden")
	// ErrRepository indicates a generic data persistence failure.
	ErrRepository = errors.New("repository error")
)
