package echo

import (
	"errors"
	"net/http"

	echofw "github.com/labstack/echo/v4"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

func CustomHTTPErrorHandler(err error, c echofw.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		_ = c.JSON(appErr.HTTPCode, map[string]interface{}{
			"code":     appErr.Code,
			"messages": appErr.Messages,
		})
		return
	}

	var echoErr *echofw.HTTPError
	if errors.As(err, &echoErr) {
		_ = c.JSON(echoErr.Code, map[string]interface{}{
			"code":     "HTTP_ERROR",
			"messages": []string{http.StatusText(echoErr.Code)},
		})
		return
	}

	_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"code":     "INTERNAL_ERROR",
		"messages": []string{"an unexpected error occurred"},
	})
}
