package dto

// BaseError универсальный формат ошибки
// Code — машинно-ориентированный код (snake_case)
// Message — краткое описание
// Fields — для валидационных ошибок
// Errors — построчные проблемы корзины при нехватке остатка
type BaseError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details string       `json:"details,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
	Errors  []string     `json:"errors,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

func NewValidationError(msg string, fields []FieldError) BaseError {
	return BaseError{Code: "validation_error", Message: msg, Fields: fields}
}

func NewConflictError(msg string) BaseError {
	return BaseError{Code: "conflict", Message: msg}
}

func NewInsufficientStockError(msg string, errors []string) BaseError {
	return BaseError{Code: "insufficient_stock", Message: msg, Errors: errors}
}

func NewUnauthorizedError(msg string) BaseError {
	return BaseError{Code: "unauthorized", Message: msg}
}

func NewForbiddenError(msg string) BaseError {
	return BaseError{Code: "forbidden", Message: msg}
}

func NewNotFoundError(msg string) BaseError {
	return BaseError{Code: "not_found", Message: msg}
}

func NewUnavailableError(msg string) BaseError {
	return BaseError{Code: "unavailable", Message: msg}
}

func NewInternalError(details string) BaseError {
	return BaseError{Code: "internal_error", Message: "internal server error", Details: details}
}
