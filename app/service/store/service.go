package store

import (
	"bronebot/app/config"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Service is the durable per-user store: default location, last search
// request/response and at most one active booking per user. All data lives
// in a single JSON file, so every operation takes one mutex over the whole
// read-modify-write cycle.
type Service struct {
	cfg  *config.Config
	path string
	ttl  time.Duration

	mu  sync.Mutex
	now func() time.Time
}

func New(di *do.Injector) (*Service, error) {
	return NewService(do.MustInvoke[*config.Config](di))
}

func NewService(cfg *config.Config) (*Service, error) {
	path := cfg.Storage.Path

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, oops.Errorf("failed to create storage dir: %w", err)
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			return nil, oops.Errorf("failed to create storage file: %w", err)
		}
	}

	return &Service{
		cfg:  cfg,
		path: path,
		ttl:  cfg.Booking.TTL.Std(),
		now:  time.Now,
	}, nil
}

// ActiveBooking returns the user's booking if it exists and has not expired.
// An expired record is deleted on the spot and nil is returned.
func (s *Service) ActiveBooking(userID int64) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.loadAll()

	record := data[key(userID)]
	if record == nil || record.ActiveBooking == nil {
		return nil, nil
	}

	booking := *record.ActiveBooking

	if s.now().Sub(booking.BookedAt) > s.ttl {
		record.ActiveBooking = nil

		// Expiry cleanup is best-effort: the booking is gone either way,
		// a failed write only postpones the deletion to the next access.
		if err := s.saveAll(data); err != nil {
			slog.Warn("Failed to clean up expired booking",
				"userId", userID,
				"error", err,
			)
		}

		return nil, nil
	}

	return &booking, nil
}

// SaveActiveBooking stamps the creation time and overwrites any existing
// record. Checking for a live booking first is the caller's job.
func (s *Service) SaveActiveBooking(userID int64, booking Booking) error {
	booking.BookedAt = s.now()

	return s.updateUser(userID, func(record *userRecord) {
		record.ActiveBooking = &booking
	})
}

// CancelBooking removes the record if present and reports whether one existed.
func (s *Service) CancelBooking(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.loadAll()

	record := data[key(userID)]
	if record == nil || record.ActiveBooking == nil {
		return false, nil
	}

	record.ActiveBooking = nil

	if err := s.saveAll(data); err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) SetDefaultLocation(userID int64, locationID string) error {
	return s.updateUser(userID, func(record *userRecord) {
		record.DefaultLocation = locationID
	})
}

func (s *Service) DefaultLocation(userID int64) (string, error) {
	record, err := s.user(userID)
	if err != nil {
		return "", err
	}

	return record.DefaultLocation, nil
}

func (s *Service) SaveLastRequest(userID int64, payload map[string]any) error {
	return s.updateUser(userID, func(record *userRecord) {
		record.LastRequest = payload
	})
}

func (s *Service) SaveLastResponse(userID int64, payload map[string]any) error {
	return s.updateUser(userID, func(record *userRecord) {
		record.LastResponse = payload
	})
}

func (s *Service) LastRequest(userID int64) (map[string]any, error) {
	record, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	return record.LastRequest, nil
}

func (s *Service) LastResponse(userID int64) (map[string]any, error) {
	record, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	return record.LastResponse, nil
}

// Stats counts known users and non-expired bookings without mutating anything.
func (s *Service) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.loadAll()

	result := Stats{Users: len(data)}

	now := s.now()
	for _, record := range data {
		if record.ActiveBooking != nil && now.Sub(record.ActiveBooking.BookedAt) <= s.ttl {
			result.ActiveBookings++
		}
	}

	return result, nil
}

func (s *Service) user(userID int64) (*userRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.loadAll()[key(userID)]
	if record == nil {
		return &userRecord{}, nil
	}

	return record, nil
}

func (s *Service) updateUser(userID int64, mutate func(record *userRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.loadAll()

	record := data[key(userID)]
	if record == nil {
		record = &userRecord{}
		data[key(userID)] = record
	}

	mutate(record)

	return s.saveAll(data)
}

// loadAll reads the whole dataset. Any read or parse failure degrades to an
// empty dataset: new writes stay available even if history is lost.
func (s *Service) loadAll() map[string]*userRecord {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Failed to read storage file",
				"path", s.path,
				"error", err,
			)
		}

		return map[string]*userRecord{}
	}

	result := map[string]*userRecord{}
	if len(raw) == 0 {
		return result
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Error("Storage file is corrupted, starting empty",
			"path", s.path,
			"error", err,
		)

		return map[string]*userRecord{}
	}

	return result
}

// saveAll writes the dataset through a temp file and an atomic rename, so a
// crash mid-write never leaves a half-written file behind.
func (s *Service) saveAll(data map[string]*userRecord) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return oops.Errorf("failed to marshal storage data: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, 0644); err != nil {
		return oops.Errorf("failed to write storage temp file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		return oops.Errorf("failed to replace storage file: %w", err)
	}

	return nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
