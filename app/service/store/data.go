package store

import "time"

// Booking is one user's reservation window as committed after a search.
// Room fields may all be empty: a search that found no free room is still
// recorded, distinguishable only by the empty room info.
type Booking struct {
	LocationID      string `json:"location_id,omitempty"`
	LocationName    string `json:"location_name,omitempty"`
	Floor           *int   `json:"floor,omitempty"`
	Date            string `json:"date,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`

	RoomInfo       string `json:"room_info,omitempty"`
	Corpus         string `json:"corpus,omitempty"`
	AccessCode     string `json:"access_code,omitempty"`
	AvailableFrom  string `json:"available_from,omitempty"`
	AvailableUntil string `json:"available_until,omitempty"`

	BookedAt time.Time `json:"booked_at"`
}

// ExpiresAt is when the booking stops being reported as active.
func (b Booking) ExpiresAt(ttl time.Duration) time.Time {
	return b.BookedAt.Add(ttl)
}

type userRecord struct {
	DefaultLocation string         `json:"default_location,omitempty"`
	LastRequest     map[string]any `json:"last_request,omitempty"`
	LastResponse    map[string]any `json:"last_response,omitempty"`
	ActiveBooking   *Booking       `json:"active_booking,omitempty"`
}

// Stats is a point-in-time summary for the status server.
type Stats struct {
	Users          int `json:"users"`
	ActiveBookings int `json:"active_bookings"`
}
