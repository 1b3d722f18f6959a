package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeRooms_FallbackKeys(t *testing.T) {
	assert.Len(t, FreeRooms(map[string]any{
		"free_rooms": []any{map[string]any{"name": "R1"}},
	}), 1)

	assert.Len(t, FreeRooms(map[string]any{
		"available_rooms": []any{map[string]any{"name": "R1"}, map[string]any{"name": "R2"}},
	}), 2)

	// Envelope under "data", non-object entries dropped.
	rooms := FreeRooms(map[string]any{
		"data": map[string]any{
			"rooms": []any{map[string]any{"name": "R1"}, "garbage"},
		},
	})
	require.Len(t, rooms, 1)
	assert.Equal(t, "R1", RoomName(rooms[0]))

	assert.Nil(t, FreeRooms(map[string]any{"status": "ok"}))
}

func TestAlternatives(t *testing.T) {
	alts := Alternatives(map[string]any{
		"nearest_alternatives": []any{map[string]any{"room_name": "A5"}},
	})
	require.Len(t, alts, 1)
	assert.Equal(t, "A5", RoomName(alts[0]))
}

func TestRoomName_Fallbacks(t *testing.T) {
	assert.Equal(t, "R1", RoomName(map[string]any{"name": "R1", "id": "ignored"}))
	assert.Equal(t, "305", RoomName(map[string]any{"number": float64(305)}))
	assert.Equal(t, "", RoomName(map[string]any{"capacity": float64(10)}))
}

func TestAccessCode_Fallbacks(t *testing.T) {
	assert.Equal(t, "1234", AccessCode(map[string]any{"access_code": "1234"}))
	assert.Equal(t, "k-7", AccessCode(map[string]any{"key": "k-7"}))
	assert.Equal(t, "", AccessCode(map[string]any{}))
}

func TestFindRoomQuery_Payload(t *testing.T) {
	floor := 2
	capacity := 10

	query := FindRoomQuery{
		LocationID:      "main",
		Floor:           &floor,
		Date:            time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
		DurationMinutes: 80,
		MinCapacity:     &capacity,
		RequestedBy:     42,
	}

	payload, err := query.Payload()
	require.NoError(t, err)

	assert.Equal(t, "main", payload["location_id"])
	assert.Equal(t, "2026-09-01", payload["date"])
	assert.Equal(t, 80, payload["duration_minutes"])
	assert.Equal(t, 2, payload["floor"])
	assert.Equal(t, map[string]any{"min_capacity": 10}, payload["filters"])
	assert.Equal(t, map[string]any{"telegram_user_id": int64(42)}, payload["requested_by"])
}

func TestFindRoomQuery_OptionalFieldsOmitted(t *testing.T) {
	query := FindRoomQuery{
		LocationID:      "main",
		Date:            time.Now(),
		DurationMinutes: 60,
		RequestedBy:     42,
	}

	payload, err := query.Payload()
	require.NoError(t, err)

	_, hasFloor := payload["floor"]
	assert.False(t, hasFloor)
	_, hasFilters := payload["filters"]
	assert.False(t, hasFilters)
}

func TestFindRoomQuery_Validation(t *testing.T) {
	_, err := FindRoomQuery{
		LocationID:      "",
		Date:            time.Now(),
		DurationMinutes: 80,
		RequestedBy:     42,
	}.Payload()
	assert.Error(t, err)

	_, err = FindRoomQuery{
		LocationID:      "main",
		Date:            time.Now(),
		DurationMinutes: 5, // below the 15 minute floor
		RequestedBy:     42,
	}.Payload()
	assert.Error(t, err)
}
