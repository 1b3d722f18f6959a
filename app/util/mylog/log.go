package mylog

import (
	"bronebot/app/config"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

func Preinit() {
	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})))
}

func Init(cfg *config.Config) error {
	router := slogmulti.Router()

	router = router.Add(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))

	if cfg.Log.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.Path), 0755); err != nil {
			return err
		}

		file, err := os.OpenFile(cfg.Log.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return err
		}

		router = router.Add(slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),

			func(_ context.Context, r slog.Record) bool {
				hasTelegram := false

				r.Attrs(func(attr slog.Attr) bool {
					if attr.Key == "telegram" {
						hasTelegram = true
						return false
					}

					return true
				})

				return r.Level == slog.LevelError || hasTelegram
			},
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

// Tail returns the last n lines of the configured log file.
func Tail(cfg *config.Config, n int) ([]string, error) {
	if cfg.Log.Path == "" || n <= 0 {
		return nil, nil
	}

	data, err := os.ReadFile(cfg.Log.Path)
	if err != nil {
		return nil, err
	}

	lines := pie.Filter(strings.Split(string(data), "\n"), func(line string) bool {
		return line != ""
	})

	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return lines, nil
}
