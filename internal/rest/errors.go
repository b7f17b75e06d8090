package rest

import (
	"net/http"
	"strconv"

	"justEatMore/pkg/logger"
	jsonres "justEatMore/pkg/response"

	"github.com/labstack/echo/v4"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// writeError maps a service error to its HTTP status.
func writeError(c echo.Context, msg string, err error) error {
	status, _ := jsonres.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, err)
	} else {
		logger.Warn(msg, "error", err.Error())
	}
	return c.JSON(status, ResponseError{Message: err.Error()})
}

func badRequest(c echo.Context, msg string, err error) error {
	logger.Error(msg, err)
	return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
}

func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
