package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes — стабильная таксономия, уходит клиентам в поле "code".
const (
	CodeValidation     = "validation_error"
	CodeNotFound       = "not_found"
	CodeExpired        = "expired"
	CodeConflict       = "conflict"
	CodeAuthentication = "authentication_error"
	CodeDependency     = "dependency_error"
	CodeConfiguration  = "configuration_error"
)

// VerificationError — типизированная ошибка сервиса. Handlers переводят её в
// HTTP-ответ один-в-один; нетипизированные ошибки через границу не проходят.
type VerificationError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the same request.
func (e *VerificationError) Retryable() bool {
	return e.Code == CodeDependency
}

func NewValidationError(message string) *VerificationError {
	return &VerificationError{Code: CodeValidation, Status: fiber.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *VerificationError {
	return &VerificationError{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: message}
}

func NewExpiredError(message string) *VerificationError {
	return &VerificationError{Code: CodeExpired, Status: fiber.StatusGone, Message: message}
}

func NewConflictError(message string) *VerificationError {
	return &VerificationError{Code: CodeConflict, Status: fiber.StatusConflict, Message: message}
}

func NewAuthenticationError(message string) *VerificationError {
	return &VerificationError{Code: CodeAuthentication, Status: fiber.StatusUnauthorized, Message: message}
}

func NewDependencyError(message string, err error) *VerificationError {
	return &VerificationError{Code: CodeDependency, Status: fiber.StatusServiceUnavailable, Message: message, Err: err}
}

func NewConfigurationError(message string) *VerificationError {
	return &VerificationError{Code: CodeConfiguration, Status: fiber.StatusInternalServerError, Message: message}
}

// AsVerificationError unwraps err into the taxonomy, if it belongs to it.
func AsVerificationError(err error) (*VerificationError, bool) {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
