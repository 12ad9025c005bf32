package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownRegion is returned when a region label is not one of Regions().
var ErrUnknownRegion = errors.New("unknown region")

// ErrUnknownAction is returned when an action type is not part of the catalog.
var ErrUnknownAction = errors.New("unknown action")

// ErrNoRegionSelected is returned by Retry when there is nothing to retry.
var ErrNoRegionSelected = errors.New("no region selected")

// ErrCountryNotFound is returned when a country is not in the loaded list.
var ErrCountryNotFound = errors.New("country not found")

// FetchError is the transport failure of a country fetch.
// Status is the HTTP status of the response; 0 means no response was received.
type FetchError struct {
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("fetch failed with status %d", e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
