package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"justEatMore/pkg/logger"
	jsonres "justEatMore/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape handlers: echo's own HTTP errors
// keep their status, domain errors go through the usual mapping.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		code    string
		message string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		code = http.StatusText(he.Code)
		message = fmt.Sprint(he.Message)
	} else {
		status, code = jsonres.StatusFor(err)
		message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.Error("unhandled request error", err, "path", c.Path(), "method", c.Request().Method)
		message = http.StatusText(status)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, jsonres.Error(code, message, nil))
	}
	if writeErr != nil {
		logger.Error("failed to write error response", writeErr)
	}
}
