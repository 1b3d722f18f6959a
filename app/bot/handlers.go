package bot

import (
	"bronebot/app/config"
	"bronebot/app/service/dialog"
	"bronebot/app/util/mylog"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/elliotchance/pie/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultLogLines = 30

func (s *Service) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	switch message.Command() {
	case "start":
		s.cmdStart(chatID)
	case "help":
		s.cmdHelp(chatID)
	case "find":
		s.cmdFind(ctx, chatID, userID)
	case "mybook":
		s.cmdMyBooking(chatID, userID)
	case "cancelbook":
		s.cmdCancelBooking(ctx, chatID, userID)
	case "setdefault":
		s.cmdSetDefault(chatID, userID, message.CommandArguments())
	case "status":
		s.cmdStatus(ctx, chatID, userID)
	case "logs":
		s.cmdLogs(chatID, userID, message.CommandArguments())
	case "cancel":
		s.cmdCancelDialog(chatID, userID)
	}
}

func (s *Service) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID

	var chatID int64
	if callback.Message != nil {
		chatID = callback.Message.Chat.ID
	}

	data := callback.Data

	switch {
	case strings.HasPrefix(data, "findloc:"):
		s.callbackLocation(ctx, callback, chatID, userID, strings.TrimPrefix(data, "findloc:"))
	case strings.HasPrefix(data, "findfloor:"):
		s.callbackFloor(ctx, callback, chatID, userID, strings.TrimPrefix(data, "findfloor:"))
	case data == "cancel_booking":
		s.answerCallback(callback.ID, "", false)
		s.cmdCancelBooking(ctx, chatID, userID)
	case strings.HasPrefix(data, "detail:"):
		s.callbackRoomDetail(callback, chatID, userID, strings.TrimPrefix(data, "detail:"))
	}
}

func (s *Service) cmdStart(chatID int64) {
	locations := strings.Join(pie.Map(s.cfg.Locations, func(location config.Location) string {
		return location.Name
	}), ", ")

	s.reply(chatID, strings.Join([]string{
		"<b>Бот бронирования кабинетов</b>",
		"Бот находит и бронирует свободный кабинет.",
		"",
		"<b>Быстрый старт:</b>",
		"1. /find — забронировать кабинет",
		"2. /mybook — посмотреть текущую бронь",
		"3. /cancelbook — отменить бронь",
		"4. /help — все команды",
		"",
		"<b>Доступные локации:</b> " + html.EscapeString(locations),
	}, "\n"))
}

func (s *Service) cmdHelp(chatID int64) {
	s.reply(chatID, strings.Join([]string{
		"<b>Команды</b>",
		"/start - приветствие",
		"/help - список команд",
		"/find - забронировать кабинет",
		"/mybook - посмотреть текущую бронь",
		"/cancelbook - отменить бронь",
		"/setdefault [location_id] - сохранить локацию по умолчанию",
		"/status - health backend (только админы)",
		"/logs [N] - последние N строк логов (только админы)",
		"/cancel - отменить текущий диалог",
	}, "\n"))
}

func (s *Service) cmdFind(ctx context.Context, chatID, userID int64) {
	result, err := s.dialogSvc.StartSearch(ctx, userID)
	if err != nil {
		slog.Error("StartSearch failed", "userId", userID, "error", err)
		s.reply(chatID, "Внутренняя ошибка. Попробуйте еще раз позже.")
		return
	}

	if result.ActiveBooking != nil {
		markup := bookingKeyboard()
		s.replyWithMarkup(chatID, formatActiveBooking(result.ActiveBooking, s.cfg.Booking.TTL.Std()), &markup)
		return
	}

	hint := ""
	if result.DefaultLocation != "" {
		if location, ok := s.cfg.Location(result.DefaultLocation); ok {
			hint = fmt.Sprintf("\nТекущая локация по умолчанию: <b>%s</b> (%s).",
				html.EscapeString(location.Name), location.ID)
		}
	}

	markup := locationKeyboard(result.Locations)
	s.replyWithMarkup(chatID, "Шаг 1/2. Выберите локацию:"+hint, &markup)
}

func (s *Service) cmdMyBooking(chatID, userID int64) {
	booking, err := s.dialogSvc.ActiveBooking(userID)
	if err != nil {
		slog.Error("ActiveBooking failed", "userId", userID, "error", err)
		s.reply(chatID, "Внутренняя ошибка. Попробуйте еще раз позже.")
		return
	}

	if booking == nil {
		s.reply(chatID, "У вас нет активной брони.")
		return
	}

	markup := bookingKeyboard()
	s.replyWithMarkup(chatID, formatActiveBooking(booking, s.cfg.Booking.TTL.Std()), &markup)
}

func (s *Service) cmdCancelBooking(ctx context.Context, chatID, userID int64) {
	outcome, err := s.dialogSvc.CancelActiveBooking(ctx, userID)
	if err != nil {
		slog.Error("CancelActiveBooking failed", "userId", userID, "error", err)
		s.reply(chatID, "Не удалось отменить бронь. Попробуйте еще раз позже.")
		return
	}

	if !outcome.Cancelled {
		s.reply(chatID, "У вас нет активной брони.")
		return
	}

	if outcome.BackendErr != nil {
		s.reply(chatID, "✅ Локальная бронь отменена, но ошибка при удалении из БД.\n"+
			"Детали: "+html.EscapeString(outcome.BackendErr.Error()))
		return
	}

	s.reply(chatID, "✅ Бронь успешно отменена. Используйте /find для новой записи.")
}

func (s *Service) cmdSetDefault(chatID, userID int64, args string) {
	locationID := strings.TrimSpace(args)
	if locationID == "" {
		s.reply(chatID, "Укажите id локации: /setdefault [location_id]")
		return
	}

	location, err := s.dialogSvc.SetDefaultLocation(userID, locationID)
	if errors.Is(err, dialog.ErrUnknownLocation) {
		s.reply(chatID, "Локация не найдена. Посмотрите доступные в /start.")
		return
	}
	if err != nil {
		slog.Error("SetDefaultLocation failed", "userId", userID, "error", err)
		s.reply(chatID, "Не удалось сохранить локацию.")
		return
	}

	s.reply(chatID, fmt.Sprintf("Локация по умолчанию: <b>%s</b>.", html.EscapeString(location.Name)))
}

func (s *Service) cmdStatus(ctx context.Context, chatID, userID int64) {
	if !s.isAdmin(userID) {
		s.reply(chatID, "Команда доступна только администраторам.")
		return
	}

	response, err := s.backendClient.Health(ctx)
	if err != nil {
		s.reply(chatID, "❌ Backend недоступен:\n<code>"+html.EscapeString(err.Error())+"</code>")
		return
	}

	s.reply(chatID, fmt.Sprintf("✅ Backend отвечает, полей в ответе: %d.", len(response)))
}

func (s *Service) cmdLogs(chatID, userID int64, args string) {
	if !s.isAdmin(userID) {
		s.reply(chatID, "Команда доступна только администраторам.")
		return
	}

	n := defaultLogLines
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			n = parsed
		}
	}

	lines, err := mylog.Tail(s.cfg, n)
	if err != nil {
		s.reply(chatID, "Не удалось прочитать логи: "+html.EscapeString(err.Error()))
		return
	}

	if len(lines) == 0 {
		s.reply(chatID, "Лог пуст или файловое логирование выключено.")
		return
	}

	s.reply(chatID, "<code>"+html.EscapeString(strings.Join(lines, "\n"))+"</code>")
}

func (s *Service) cmdCancelDialog(chatID, userID int64) {
	if s.dialogSvc.CancelDialog(userID) {
		s.reply(chatID, "Диалог поиска отменен.")
	} else {
		s.reply(chatID, "Активного диалога нет.")
	}
}

func (s *Service) callbackLocation(ctx context.Context, callback *tgbotapi.CallbackQuery, chatID, userID int64, locationID string) {
	result, err := s.dialogSvc.SelectLocation(ctx, userID, locationID)

	switch {
	case errors.Is(err, dialog.ErrUnknownLocation):
		s.answerCallback(callback.ID, "Локация не найдена.", true)
		return
	case errors.Is(err, dialog.ErrNoActiveDialog):
		s.answerCallback(callback.ID, "Диалог не активен, начните с /find.", true)
		return
	case err != nil:
		s.answerCallback(callback.ID, "", false)
		s.replySearchError(chatID, err)
		return
	}

	s.answerCallback(callback.ID, "", false)

	if result.Floors != nil {
		markup := floorKeyboard(result.Floors)
		s.replyWithMarkup(chatID, "Шаг 2/2. Выберите этаж:", &markup)
		return
	}

	s.replySearchOutcome(chatID, result.Outcome)
}

func (s *Service) callbackFloor(ctx context.Context, callback *tgbotapi.CallbackQuery, chatID, userID int64, raw string) {
	outcome, err := s.dialogSvc.SelectFloor(ctx, userID, raw)

	switch {
	case errors.Is(err, dialog.ErrUnknownFloor):
		s.answerCallback(callback.ID, "Некорректный этаж.", true)
		return
	case errors.Is(err, dialog.ErrNoActiveDialog):
		s.answerCallback(callback.ID, "Диалог не активен, начните с /find.", true)
		return
	case err != nil:
		s.answerCallback(callback.ID, "", false)
		s.replySearchError(chatID, err)
		return
	}

	s.answerCallback(callback.ID, "", false)
	s.replySearchOutcome(chatID, outcome)
}

func (s *Service) callbackRoomDetail(callback *tgbotapi.CallbackQuery, chatID, userID int64, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		s.answerCallback(callback.ID, "Некорректный номер.", true)
		return
	}

	room, err := s.dialogSvc.RoomDetail(userID, index)

	switch {
	case errors.Is(err, dialog.ErrNoSavedResponse):
		s.answerCallback(callback.ID, "Нет сохраненного ответа.", true)
		return
	case errors.Is(err, dialog.ErrUnknownRoomIndex):
		s.answerCallback(callback.ID, "Некорректный номер.", true)
		return
	case err != nil:
		s.answerCallback(callback.ID, "Внутренняя ошибка.", true)
		return
	}

	s.answerCallback(callback.ID, "", false)
	s.reply(chatID, formatRoomDetails(room))
}

func (s *Service) replySearchOutcome(chatID int64, outcome *dialog.SearchOutcome) {
	markup := resultKeyboard(searchResultRoomCount(outcome.Response))
	s.replyWithMarkup(chatID, formatSearchResult(outcome.Response), &markup)
}

func (s *Service) replySearchError(chatID int64, err error) {
	s.reply(chatID, "Сервис поиска временно недоступен. Попробуйте позже.\n"+
		"Техническая ошибка: "+html.EscapeString(err.Error()))
}
