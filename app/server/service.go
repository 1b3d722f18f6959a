package server

import (
	"bronebot/app/config"
	"bronebot/app/service/store"
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

// Service exposes operator endpoints: liveness and store counters.
type Service struct {
	cfg      *config.Config
	storeSvc *store.Service
	app      *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:      do.MustInvoke[*config.Config](di),
		storeSvc: do.MustInvoke[*store.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/stats", s.handleStats)

	return s, nil
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

func (s *Service) handleStats(c *fiber.Ctx) error {
	stats, err := s.storeSvc.Stats()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(stats)
}

// Run serves until ctx is cancelled. A missing listen address disables the
// server entirely.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Server.Addr == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	errChan := make(chan error, 1)

	go func() {
		errChan <- s.app.Listen(s.cfg.Server.Addr)
	}()

	slog.Info("Status server started", "addr", s.cfg.Server.Addr)

	select {
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Warn("Status server shutdown failed", "error", err)
		}

		return ctx.Err()

	case err := <-errChan:
		return err
	}
}
