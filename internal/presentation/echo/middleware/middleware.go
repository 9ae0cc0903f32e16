package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func TraceID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		traceID := c.Request().Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Response().Header().Set("X-Trace-Id", traceID)
		c.Set("trace_id", traceID)
		return next(c)
	}
}

func RequestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		logrus.WithFields(logrus.Fields{
			"trace_id": c.Get("trace_id"),
			"method":   c.Request().Method,
			"path":     c.Request().URL.Path,
			"status":   c.Response().Status,
			"duration": time.Since(start).String(),
		}).Info("request")
		return err
	}
}

func Recovery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("recovered from panic")
				_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
					"code":     "INTERNAL_ERROR",
					"messages": []string{"an unexpected error occurred"},
				})
			}
		}()
		return next(c)
	}
}
