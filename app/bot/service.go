package bot

import (
	"bronebot/app/client/backend"
	"bronebot/app/config"
	"bronebot/app/service/dialog"
	"context"
	"log/slog"

	"github.com/elliotchance/pie/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Service is the Telegram transport: it parses commands and callbacks,
// drives the dialog service and renders its plain results back to the chat.
type Service struct {
	cfg           *config.Config
	api           *tgbotapi.BotAPI
	dialogSvc     *dialog.Service
	backendClient *backend.Client
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, oops.Errorf("failed to create telegram bot: %w", err)
	}

	s := &Service{
		cfg:           cfg,
		api:           api,
		dialogSvc:     do.MustInvoke[*dialog.Service](di),
		backendClient: do.MustInvoke[*backend.Client](di),
	}

	if err := s.setCommands(); err != nil {
		slog.Warn("Failed to register bot commands", "error", err)
	}

	return s, nil
}

func (s *Service) setCommands() error {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Приветствие"},
		tgbotapi.BotCommand{Command: "help", Description: "Список команд"},
		tgbotapi.BotCommand{Command: "find", Description: "Забронировать кабинет"},
		tgbotapi.BotCommand{Command: "mybook", Description: "Моя текущая бронь"},
		tgbotapi.BotCommand{Command: "cancelbook", Description: "Отменить бронь"},
		tgbotapi.BotCommand{Command: "setdefault", Description: "Локация по умолчанию"},
		tgbotapi.BotCommand{Command: "status", Description: "Проверка backend (admin)"},
		tgbotapi.BotCommand{Command: "logs", Description: "Логи приложения (admin)"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отмена текущего диалога"},
	)

	_, err := s.api.Request(commands)

	return err
}

// Run consumes updates until ctx is cancelled. Each update is handled on its
// own goroutine so one user's backend wait never stalls another's dialog.
func (s *Service) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := s.api.GetUpdatesChan(updateConfig)

	slog.Info("Telegram bot started", "username", s.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return nil
			}

			go s.handleUpdate(ctx, update)
		}
	}
}

func (s *Service) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in update handler", "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		s.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		s.handleCallback(ctx, update.CallbackQuery)
	}
}

func (s *Service) reply(chatID int64, text string) {
	s.replyWithMarkup(chatID, text, nil)
}

func (s *Service) replyWithMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	if _, err := s.api.Send(msg); err != nil {
		slog.Error("Failed to send telegram message",
			"chatId", chatID,
			"error", err,
		)
	}
}

func (s *Service) answerCallback(callbackID, text string, alert bool) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if alert {
		callback = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}

	if _, err := s.api.Request(callback); err != nil {
		slog.Warn("Failed to answer callback", "error", err)
	}
}

func (s *Service) isAdmin(userID int64) bool {
	return pie.Contains(s.cfg.Telegram.AdminIDs, userID)
}
