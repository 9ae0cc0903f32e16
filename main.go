package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stanmart1/skylyt-core/internal/application"
	gormdb "github.com/stanmart1/skylyt-core/internal/infrastructure/gorm"
	echoserver "github.com/stanmart1/skylyt-core/internal/presentation/echo"
	"github.com/stanmart1/skylyt-core/internal/utils/config"
)

func main() {
	cfg := config.Load()

	db, err := gormdb.NewConnection(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}

	if err := gormdb.RunMigrations(db); err != nil {
		logrus.WithError(err).Error("failed to run migrations")
		os.Exit(1)
	}

	container, err := application.NewContainer(db, cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to build application container")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.Start(ctx)

	server := echoserver.NewServer(cfg, container)
	if err := <-server.Start(); err != nil {
		logrus.WithError(err).Error("server error")
		os.Exit(1)
	}
}
