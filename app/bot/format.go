package bot

import (
	"bronebot/app/client/backend"
	"bronebot/app/service/store"
	"fmt"
	"html"
	"strings"
	"time"
)

// HTML rendering of core data. The dialog and store only emit plain records,
// all user-facing text lives here.

func formatActiveBooking(booking *store.Booking, ttl time.Duration) string {
	lines := []string{"<b>У вас уже есть активная запись:</b>", ""}

	if booking.LocationName != "" {
		lines = append(lines, fmt.Sprintf("📍 Локация: <b>%s</b>", html.EscapeString(booking.LocationName)))
	}
	if booking.Floor != nil {
		lines = append(lines, fmt.Sprintf("🏢 Этаж: %d", *booking.Floor))
	}
	if booking.Date != "" {
		lines = append(lines, fmt.Sprintf("📅 Дата: %s", html.EscapeString(booking.Date)))
	}
	if booking.AvailableFrom != "" {
		lines = append(lines, fmt.Sprintf("⏰ Забронировано с: %s", html.EscapeString(booking.AvailableFrom)))
	}
	if booking.AvailableUntil != "" {
		lines = append(lines, fmt.Sprintf("⏳ До: %s", html.EscapeString(booking.AvailableUntil)))
	}
	if !booking.BookedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("🕐 Запись создана: %s", booking.BookedAt.Format("15:04")))
		lines = append(lines, fmt.Sprintf("⌛ Истекает: %s", booking.ExpiresAt(ttl).Format("15:04")))
	}
	if booking.RoomInfo != "" {
		lines = append(lines, "", fmt.Sprintf("🚪 Кабинет: <b>%s</b>", html.EscapeString(booking.RoomInfo)))
	}
	if booking.AccessCode != "" {
		lines = append(lines, fmt.Sprintf("🔑 Код доступа: <code>%s</code>", html.EscapeString(booking.AccessCode)))
	}

	lines = append(lines, "", "Чтобы сделать новую запись, сначала отмените текущую.")

	return strings.Join(lines, "\n")
}

func formatSearchResult(response map[string]any) string {
	freeRooms := backend.FreeRooms(response)
	alternatives := backend.Alternatives(response)

	if len(freeRooms) == 0 && len(alternatives) == 0 {
		return "Свободных кабинетов не нашлось. Попробуйте позже или выберите другой этаж."
	}

	var lines []string

	if len(freeRooms) > 0 {
		lines = append(lines, "<b>Свободные кабинеты:</b>")
		for i, room := range freeRooms {
			lines = append(lines, roomLine(room, i+1))
		}
	}

	if len(alternatives) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "<b>Ближайшие альтернативы:</b>")
		for i, room := range alternatives {
			lines = append(lines, roomLine(room, len(freeRooms)+i+1))
		}
	}

	return strings.Join(lines, "\n")
}

func roomLine(room map[string]any, index int) string {
	name := backend.RoomName(room)
	if name == "" {
		name = "Без имени"
	}

	chunks := []string{fmt.Sprintf("%d. <b>%s</b>", index, html.EscapeString(name))}

	if location := firstNonEmpty(
		backend.StringField(room, "location_name"),
		backend.StringField(room, "location_id"),
		backend.StringField(room, "location"),
	); location != "" {
		chunks = append(chunks, "локация: "+html.EscapeString(location))
	}

	if floor := backend.StringField(room, "floor"); floor != "" {
		chunks = append(chunks, "этаж: "+floor)
	}

	if from := backend.StringField(room, "available_from"); from != "" {
		timeStr := "с " + html.EscapeString(from)
		if until := backend.StringField(room, "available_until"); until != "" {
			timeStr += " до " + html.EscapeString(until)
		}
		chunks = append(chunks, "⏰ "+timeStr)
	}

	if capacity := backend.StringField(room, "capacity"); capacity != "" {
		chunks = append(chunks, "вместимость: "+capacity)
	}

	if code := backend.AccessCode(room); code != "" {
		chunks = append(chunks, "код доступа: <code>"+html.EscapeString(code)+"</code>")
	}

	return strings.Join(chunks, " | ")
}

func formatRoomDetails(room map[string]any) string {
	name := backend.RoomName(room)
	if name == "" {
		name = "Без имени"
	}

	lines := []string{fmt.Sprintf("<b>Кабинет %s</b>", html.EscapeString(name))}

	for _, field := range []struct {
		key   string
		label string
	}{
		{"location_name", "Локация"},
		{"floor", "Этаж"},
		{"capacity", "Вместимость"},
		{"available_from", "Свободен с"},
		{"available_until", "Свободен до"},
	} {
		if value := backend.StringField(room, field.key); value != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", field.label, html.EscapeString(value)))
		}
	}

	if code := backend.AccessCode(room); code != "" {
		lines = append(lines, fmt.Sprintf("Код доступа: <code>%s</code>", html.EscapeString(code)))
	}

	return strings.Join(lines, "\n")
}

func searchResultRoomCount(response map[string]any) int {
	return len(backend.FreeRooms(response)) + len(backend.Alternatives(response))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
