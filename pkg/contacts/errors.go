package contacts

import "errors"

var (
	ErrListNotFound = errors.New("LIST_NOT_FOUND")
	ErrTimeout      = errors.New("TIMEOUT")
	ErrUnavailable  = errors.New("CONTACT_STORE_UNAVAILABLE")
)
