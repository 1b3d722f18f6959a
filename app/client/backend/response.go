package backend

import "strconv"

// Room list extraction. The backend does not guarantee a stable schema, so
// lists are looked up under several known keys, optionally nested inside a
// "data" envelope.

var (
	freeRoomKeys    = []string{"free_rooms", "rooms", "available_rooms"}
	alternativeKeys = []string{"alternatives", "nearest_alternatives", "suggested_rooms"}
	roomNameKeys    = []string{"name", "room_name", "room", "id", "number"}
	accessCodeKeys  = []string{"access_code", "key", "code"}
)

// FreeRooms extracts the free-room list from a search response.
func FreeRooms(payload map[string]any) []map[string]any {
	return extractList(payload, freeRoomKeys)
}

// Alternatives extracts the suggested-alternatives list from a search response.
func Alternatives(payload map[string]any) []map[string]any {
	return extractList(payload, alternativeKeys)
}

// RoomName picks a displayable room name, whatever key the backend used.
func RoomName(room map[string]any) string {
	for _, key := range roomNameKeys {
		if value, ok := room[key]; ok {
			if s := stringValue(value); s != "" {
				return s
			}
		}
	}

	return ""
}

// AccessCode picks the room access code, whatever key the backend used.
func AccessCode(room map[string]any) string {
	for _, key := range accessCodeKeys {
		if s := stringValue(room[key]); s != "" {
			return s
		}
	}

	return ""
}

// StringField returns room[key] as a string, or "" when absent.
func StringField(room map[string]any, key string) string {
	return stringValue(room[key])
}

func extractList(payload map[string]any, keys []string) []map[string]any {
	if list := listUnder(payload, keys); list != nil {
		return list
	}

	if data, ok := payload["data"].(map[string]any); ok {
		return listUnder(data, keys)
	}

	return nil
}

func listUnder(payload map[string]any, keys []string) []map[string]any {
	for _, key := range keys {
		raw, ok := payload[key].([]any)
		if !ok {
			continue
		}

		result := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			if room, ok := item.(map[string]any); ok {
				result = append(result, room)
			}
		}

		return result
	}

	return nil
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	return ""
}
