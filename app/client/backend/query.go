package backend

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

var queryValidator = validator.New(validator.WithRequiredStructEnabled())

// FindRoomQuery is a validated search request.
type FindRoomQuery struct {
	LocationID      string `validate:"required"`
	Floor           *int
	Date            time.Time `validate:"required"`
	DurationMinutes int       `validate:"min=15,max=480"`
	MinCapacity     *int      `validate:"omitempty,min=1,max=500"`
	NeedProjector   *bool
	RequestedBy     int64 `validate:"required"`
}

// Payload builds the wire format the backend expects. Optional fields are
// omitted entirely rather than sent as null.
func (q FindRoomQuery) Payload() (map[string]any, error) {
	if err := queryValidator.Struct(q); err != nil {
		return nil, oops.Errorf("invalid room query: %w", err)
	}

	payload := map[string]any{
		"location_id":      q.LocationID,
		"date":             q.Date.Format("2006-01-02"),
		"duration_minutes": q.DurationMinutes,
		"requested_by": map[string]any{
			"telegram_user_id": q.RequestedBy,
		},
	}

	if q.Floor != nil {
		payload["floor"] = *q.Floor
	}

	filters := map[string]any{}
	if q.MinCapacity != nil {
		filters["min_capacity"] = *q.MinCapacity
	}
	if q.NeedProjector != nil {
		filters["need_projector"] = *q.NeedProjector
	}
	if len(filters) > 0 {
		payload["filters"] = filters
	}

	return payload, nil
}
