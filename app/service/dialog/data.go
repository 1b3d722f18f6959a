package dialog

import (
	"bronebot/app/config"
	"bronebot/app/service/store"
	"errors"
)

var (
	ErrNoActiveDialog   = errors.New("no active search dialog")
	ErrUnknownLocation  = errors.New("unknown location")
	ErrUnknownFloor     = errors.New("unknown floor")
	ErrNoSavedResponse  = errors.New("no saved search response")
	ErrUnknownRoomIndex = errors.New("room index out of range")
)

type sessionState int

const (
	choosingLocation sessionState = iota + 1
	choosingFloor
)

// session is the transient per-user dialog state. It lives only between the
// search trigger and completion and is never persisted.
type session struct {
	state        sessionState
	locationID   string
	locationName string
	floor        *int
}

// StartResult is either an existing booking (short-circuit, no dialog
// started) or the location set to choose from.
type StartResult struct {
	ActiveBooking *store.Booking

	Locations       []config.Location
	DefaultLocation string
}

// SelectLocationResult is either a floor prompt or, for locations without
// floor subdivisions, the completed search.
type SelectLocationResult struct {
	Floors  []int
	Outcome *SearchOutcome
}

// SearchOutcome is the committed booking together with the raw backend
// response for the rendering layer.
type SearchOutcome struct {
	Booking  store.Booking
	Response map[string]any
}

// CancelOutcome reports a booking cancellation. BackendErr is set when the
// local record was removed but the backend release call failed.
type CancelOutcome struct {
	Cancelled  bool
	Booking    *store.Booking
	BackendErr error
}
