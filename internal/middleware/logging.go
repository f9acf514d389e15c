package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	apperrors "trackr/internal/errors"
	"trackr/internal/logger"
)

// RequestLogger logs one line per request through zap.
// Client errors log at warn and server errors at error.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Check(logger.LevelForStatus(v.Status), "request").Write(fields...)
			return nil
		},
	})
}

// ErrorHandler renders every error as an ErrorResponse JSON body.
// Domain errors are mapped to their status; anything unrecognized is a 500
// whose cause is logged but never sent to the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolve(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func resolve(err error) (int, apperrors.ErrorResponse) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		mapped := apperrors.MapErrorToHTTP(err)
		return mapped.StatusCode, mapped.ToErrorResponse()
	}

	switch msg := he.Message.(type) {
	case apperrors.ErrorResponse:
		return he.Code, msg
	case string:
		if he.Code >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return he.Code, apperrors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
	default:
		return he.Code, apperrors.ErrorResponse{Error: http.StatusText(he.Code), Code: codeForStatus(he.Code)}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
