package main

import (
	"bronebot/app/bot"
	"bronebot/app/client/backend"
	"bronebot/app/config"
	"bronebot/app/server"
	"bronebot/app/service/dialog"
	"bronebot/app/service/store"
	"bronebot/app/util/mylog"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, backend.NewClient)
	do.Provide(di, store.New)
	do.Provide(di, dialog.New)
	do.Provide(di, bot.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		return do.MustInvoke[*bot.Service](di).Run(groupCtx)
	})
	group.Go(func() error {
		return do.MustInvoke[*server.Service](di).Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("service failed: %v", err)
	}
}
