package middleware

// エラーレスポンスのコード（handlerと共通）
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountBlocked      = "ACCOUNT_BLOCKED"
	CodeAccountUnverified   = "ACCOUNT_UNVERIFIED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func ErrorJSON(code, msg string) ErrorResponse {
	return ErrorResponse{Error: code, Message: msg}
}
