package handler

import (
	"errors"
	"net/http"

	"print-store/internal/dto"
	"print-store/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewErrorHandler maps service errors onto HTTP responses. Internal details
// of unexpected failures are logged, never returned.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", zap.Error(err))
		}
	}
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	var (
		validationErr *service.ValidationError
		notFoundErr   *service.NotFoundError
		signatureErr  *service.SignatureVerificationError
		externalErr   *service.ExternalServiceError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, dto.ErrorResponse{Error: validationErr.Error(), Field: validationErr.Field}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, dto.ErrorResponse{Error: notFoundErr.Error()}
	case errors.As(err, &signatureErr):
		return http.StatusBadRequest, dto.ErrorResponse{Error: "webhook signature verification failed"}
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error()}
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, dto.ErrorResponse{Error: err.Error()}
	case errors.As(err, &externalErr):
		return http.StatusInternalServerError, dto.ErrorResponse{Error: externalErr.Service + " unavailable"}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		return httpErr.Code, dto.ErrorResponse{Error: msg}
	default:
		return http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"}
	}
}
