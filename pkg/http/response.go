package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the APIResponse envelope with the given status.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse writes an AppError, or a generic 500 for anything else.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return DataResponse(c, http.StatusInternalServerError, []*AppError{
		NewAppError("ERR_INTERNAL", "", "Something went wrong", http.StatusInternalServerError),
	})
}

// ErrorResponse writes the flat {error, message} body used by the legacy routes.
func ErrorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	code := "ERR_INTERNAL"
	var appErr *AppError
	if errors.As(err, &appErr) {
		status, code = appErr.Status, appErr.Code
	}
	return c.JSON(status, map[string]string{"error": code, "message": err.Error()})
}
