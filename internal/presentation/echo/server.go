package echo

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	echofw "github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/stanmart1/skylyt-core/internal/application"
	"github.com/stanmart1/skylyt-core/internal/utils/config"
)

type Server struct {
	echo   *echofw.Echo
	config *config.Config
}

func NewServer(cfg *config.Config, container *application.Container) *Server {
	e := echofw.New()
	e.HideBanner = true
	e.HTTPErrorHandler = CustomHTTPErrorHandler

	ConfigureRoutes(e, container)

	return &Server{
		echo:   e,
		config: cfg,
	}
}

func (s *Server) Start() <-chan error {
	errC := make(chan error, 1)

	go func() {
		if err := s.echo.Start(":" + s.config.AppPort); err != nil && err != http.ErrServerClosed {
			errC <- err
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
		<-quit

		logrus.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), s.config.GracefulTimeout)
		defer cancel()

		if err := s.echo.Shutdown(ctx); err != nil {
			errC <- err
		}
		close(errC)
	}()

	logrus.WithField("port", s.config.AppPort).Info("server started")
	return errC
}
