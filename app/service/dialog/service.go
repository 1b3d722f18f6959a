package dialog

import (
	"bronebot/app/client/backend"
	"bronebot/app/config"
	"bronebot/app/service/store"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Service drives the multi-step room search: collect a location and floor,
// call the backend, commit the result to the store. Sessions are in-memory
// only, losing them on restart just restarts the dialog.
type Service struct {
	cfg           *config.Config
	backendClient *backend.Client
	storeSvc      *store.Service

	mu       sync.Mutex
	sessions map[int64]*session

	now func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*backend.Client](di),
		do.MustInvoke[*store.Service](di),
	), nil
}

func NewService(cfg *config.Config, backendClient *backend.Client, storeSvc *store.Service) *Service {
	return &Service{
		cfg:           cfg,
		backendClient: backendClient,
		storeSvc:      storeSvc,
		sessions:      make(map[int64]*session),
		now:           time.Now,
	}
}

// StartSearch opens a new dialog. An active booking short-circuits: the user
// must cancel it before searching again. Any previous unfinished dialog is
// implicitly discarded.
func (s *Service) StartSearch(ctx context.Context, userID int64) (*StartResult, error) {
	booking, err := s.storeSvc.ActiveBooking(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}

	if booking != nil {
		return &StartResult{ActiveBooking: booking}, nil
	}

	s.mu.Lock()
	s.sessions[userID] = &session{state: choosingLocation}
	s.mu.Unlock()

	defaultLocation, err := s.storeSvc.DefaultLocation(userID)
	if err != nil {
		slog.Warn("Failed to read default location",
			"userId", userID,
			"error", err,
		)
	}

	return &StartResult{
		Locations:       s.cfg.Locations,
		DefaultLocation: defaultLocation,
	}, nil
}

// SelectLocation records the chosen location. Locations with floors advance
// the dialog to the floor step, the rest execute the search right away.
func (s *Service) SelectLocation(ctx context.Context, userID int64, locationID string) (*SelectLocationResult, error) {
	location, ok := s.cfg.Location(locationID)
	if !ok {
		return nil, ErrUnknownLocation
	}

	s.mu.Lock()
	sess := s.sessions[userID]
	if sess == nil || sess.state != choosingLocation {
		s.mu.Unlock()
		return nil, ErrNoActiveDialog
	}

	sess.locationID = location.ID
	sess.locationName = location.Name

	if len(location.Floors) > 0 {
		sess.state = choosingFloor
		s.mu.Unlock()

		return &SelectLocationResult{Floors: location.Floors}, nil
	}

	// Floorless locations execute right away. The session is claimed while
	// the lock is still held, so a duplicate callback finds no dialog instead
	// of entering execution a second time.
	sess.floor = nil
	claimed := *sess
	delete(s.sessions, userID)
	s.mu.Unlock()

	outcome, err := s.execute(ctx, userID, claimed)
	if err != nil {
		return nil, err
	}

	return &SelectLocationResult{Outcome: outcome}, nil
}

// SelectFloor records the chosen floor ("any" for no preference) and executes
// the search. An invalid floor leaves the dialog at the floor step.
func (s *Service) SelectFloor(ctx context.Context, userID int64, raw string) (*SearchOutcome, error) {
	s.mu.Lock()

	sess := s.sessions[userID]
	if sess == nil || sess.state != choosingFloor {
		s.mu.Unlock()
		return nil, ErrNoActiveDialog
	}

	if raw == "any" {
		sess.floor = nil
	} else {
		floor, err := strconv.Atoi(raw)
		if err != nil {
			s.mu.Unlock()
			return nil, ErrUnknownFloor
		}

		location, ok := s.cfg.Location(sess.locationID)
		if !ok || !pie.Contains(location.Floors, floor) {
			s.mu.Unlock()
			return nil, ErrUnknownFloor
		}

		sess.floor = &floor
	}

	// Claim the session under the lock: a double-tapped floor button must not
	// reach execution twice.
	claimed := *sess
	delete(s.sessions, userID)
	s.mu.Unlock()

	return s.execute(ctx, userID, claimed)
}

// CancelDialog discards the session, if any. No store or backend mutation.
func (s *Service) CancelDialog(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[userID] == nil {
		return false
	}

	delete(s.sessions, userID)

	return true
}

// ActiveBooking exposes the store's booking view with its expiry semantics.
func (s *Service) ActiveBooking(userID int64) (*store.Booking, error) {
	return s.storeSvc.ActiveBooking(userID)
}

// CancelActiveBooking releases the room on the backend and removes the local
// record. The local record is removed even when the backend call fails: the
// user's single booking slot must always be reclaimable, so backend failure
// is reported as a warning next to local success.
func (s *Service) CancelActiveBooking(ctx context.Context, userID int64) (*CancelOutcome, error) {
	booking, err := s.storeSvc.ActiveBooking(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active booking: %w", err)
	}

	if booking == nil {
		return &CancelOutcome{}, nil
	}

	payload := map[string]any{
		"telegram_user_id": userID,
		"auditory_name":    booking.RoomInfo,
		"corpus":           booking.Corpus,
		"start_time":       booking.AvailableFrom,
		"end_time":         booking.AvailableUntil,
	}

	_, backendErr := s.backendClient.CancelBooking(ctx, payload)
	if backendErr != nil {
		slog.Error("Backend booking cancellation failed",
			"userId", userID,
			"error", backendErr,
		)
	}

	removed, err := s.storeSvc.CancelBooking(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove local booking: %w", err)
	}

	return &CancelOutcome{
		Cancelled:  removed,
		Booking:    booking,
		BackendErr: backendErr,
	}, nil
}

// SetDefaultLocation validates the id against the configured set before
// saving it to the user's profile.
func (s *Service) SetDefaultLocation(userID int64, locationID string) (config.Location, error) {
	location, ok := s.cfg.Location(locationID)
	if !ok {
		return config.Location{}, ErrUnknownLocation
	}

	if err := s.storeSvc.SetDefaultLocation(userID, location.ID); err != nil {
		return config.Location{}, err
	}

	return location, nil
}

// RoomDetail resolves an index into the last saved search response, counting
// free rooms first, then alternatives.
func (s *Service) RoomDetail(userID int64, index int) (map[string]any, error) {
	response, err := s.storeSvc.LastResponse(userID)
	if err != nil {
		return nil, err
	}

	if response == nil {
		return nil, ErrNoSavedResponse
	}

	rooms := append(backend.FreeRooms(response), backend.Alternatives(response)...)
	if index < 0 || index >= len(rooms) {
		return nil, ErrUnknownRoomIndex
	}

	return rooms[index], nil
}

// execute is the terminal step, entered exactly once per dialog: callers
// remove the session from the map before calling, so whatever the result a
// new dialog has to start from scratch.
func (s *Service) execute(ctx context.Context, userID int64, sess session) (*SearchOutcome, error) {
	today := s.now()

	query := backend.FindRoomQuery{
		LocationID:      sess.locationID,
		Floor:           sess.floor,
		Date:            today,
		DurationMinutes: s.cfg.Booking.DurationMinutes,
		RequestedBy:     userID,
	}

	payload, err := query.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	response, err := s.backendClient.FindRooms(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("room search failed: %w", err)
	}

	if err := s.storeSvc.SaveLastRequest(userID, payload); err != nil {
		return nil, fmt.Errorf("failed to save search request: %w", err)
	}
	if err := s.storeSvc.SaveLastResponse(userID, response); err != nil {
		return nil, fmt.Errorf("failed to save search response: %w", err)
	}

	booking := store.Booking{
		LocationID:      sess.locationID,
		LocationName:    sess.locationName,
		Floor:           sess.floor,
		Date:            today.Format("2006-01-02"),
		DurationMinutes: s.cfg.Booking.DurationMinutes,
	}

	// Zero free rooms still commits a booking record with empty room fields,
	// matching the backend-facing contract: "search performed" and "room
	// secured" share one representation.
	if rooms := backend.FreeRooms(response); len(rooms) > 0 {
		first := rooms[0]

		booking.RoomInfo = backend.RoomName(first)
		booking.Corpus = backend.StringField(first, "location_name")
		booking.AccessCode = backend.AccessCode(first)
		booking.AvailableFrom = backend.StringField(first, "available_from")
		booking.AvailableUntil = backend.StringField(first, "available_until")
	}

	if err := s.storeSvc.SaveActiveBooking(userID, booking); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	slog.Info("Search executed",
		"userId", userID,
		"locationId", sess.locationID,
		"room", booking.RoomInfo,
	)

	return &SearchOutcome{
		Booking:  booking,
		Response: response,
	}, nil
}
