package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNetwork indicates a fetch failed or returned a non-2xx or non-JSON response
	ErrNetwork = errors.New("catalog request failed")

	// ErrMalformedResponse indicates the response JSON had an unrecognized shape
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrStorage indicates the local store could not be read or written
	ErrStorage = errors.New("local storage failure")

	// ErrGameNotFound indicates the requested game does not exist
	ErrGameNotFound = errors.New("game not found")

	// ErrNoEmbedURL indicates the game record has nothing to play
	ErrNoEmbedURL = errors.New("game has no embed url")

	// ErrQueryTooShort indicates a search term below the configured minimum length
	ErrQueryTooShort = errors.New("search query too short")
)

// NetworkError describes a failed catalog request.
// It matches ErrNetwork with errors.Is.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.URL, e.Err)
	default:
		return e.URL + ": request failed"
	}
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}

// StorageError describes a failed read or write against the local store.
// It matches ErrStorage with errors.Is.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStorage}
	}
	return []error{ErrStorage, e.Err}
}
