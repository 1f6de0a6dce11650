package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/purushothaman-web/ThiraiView-sub000/internal/middleware"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/repository"
	auth "github.com/purushothaman-web/ThiraiView-sub000/internal/usecase/auth_usecase"
	"github.com/purushothaman-web/ThiraiView-sub000/internal/validator"
)

type messageResponse struct {
	Message string `json:"message"`
}

// usecaseのエラーをHTTPステータスとコードに変換する。
// 未知のエラーは500にして中身はクライアントに返さない。
func writeError(c echo.Context, logger zerolog.Logger, verbose bool, err error) error {
	status, code, msg := http.StatusInternalServerError, middleware.CodeInternal, "Internal server error"

	switch {
	case errors.Is(err, validator.ErrInvalidInput):
		status, code, msg = http.StatusBadRequest, middleware.CodeValidation, "Invalid request"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code, msg = http.StatusUnauthorized, middleware.CodeInvalidCredentials, "Invalid credentials"
	case errors.Is(err, auth.ErrAccountBlocked):
		status, code, msg = http.StatusForbidden, middleware.CodeAccountBlocked, "Your account has been blocked"
	case errors.Is(err, auth.ErrAccountUnverified):
		status, code, msg = http.StatusForbidden, middleware.CodeAccountUnverified, "Please verify your email before logging in"
	case errors.Is(err, auth.ErrMissingRefreshToken):
		status, code, msg = http.StatusUnauthorized, middleware.CodeMissingRefreshToken, "Please log in again"
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		status, code, msg = http.StatusUnauthorized, middleware.CodeInvalidRefreshToken, "Please log in again"
	case errors.Is(err, repository.ErrUserNotFound):
		status, code, msg = http.StatusNotFound, middleware.CodeNotFound, "User not found"
	default:
		ev := logger.Error().Err(err).Str("path", c.Path())
		if verbose {
			//pkg/errors のスタックトレースも出す
			ev = ev.Str("detail", fmt.Sprintf("%+v", err))
		}
		ev.Msg("unhandled error")
	}

	return c.JSON(status, middleware.ErrorJSON(code, msg))
}

// リクエストボディのJSONを読み取り。空ボディは許す。
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return validator.ErrInvalidInput
	}
	return nil
}
