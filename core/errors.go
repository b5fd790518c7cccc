package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ReshipErrorBadInput         = "RESHIP_BAD_INPUT"
	ReshipErrorQuoteNotFound    = "RESHIP_QUOTE_NOT_FOUND"
	ReshipErrorPackageNotFound  = "RESHIP_PACKAGE_NOT_FOUND"
	ReshipErrorAlreadyPaid      = "RESHIP_QUOTE_ALREADY_PAID"
	ReshipErrorSignatureInvalid = "RESHIP_SIGNATURE_INVALID"
	ReshipErrorDuplicateEvent   = "RESHIP_DUPLICATE_EVENT"
	ReshipErrorInternal         = "RESHIP_INTERNAL_ERROR"
)

var (
	ErrQuoteNotFound    = errors.New("core: quote not found")
	ErrPackageNotFound  = errors.New("core: package not found")
	ErrQuoteAlreadyPaid = errors.New("core: quote already paid")
)

func reshipErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureReshipErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrQuoteNotFound):
		return newReshipError(err.Error(), goerrors.CategoryNotFound, ReshipErrorQuoteNotFound)
	case errors.Is(err, ErrPackageNotFound):
		return newReshipError(err.Error(), goerrors.CategoryNotFound, ReshipErrorPackageNotFound)
	case errors.Is(err, ErrQuoteAlreadyPaid):
		return newReshipError(err.Error(), goerrors.CategoryConflict, ReshipErrorAlreadyPaid)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"):
		return newReshipError(err.Error(), goerrors.CategoryAuth, ReshipErrorSignatureInvalid)
	case strings.Contains(msg, "duplicate") && strings.Contains(msg, "event"):
		return newReshipError(err.Error(), goerrors.CategoryConflict, ReshipErrorDuplicateEvent)
	case strings.Contains(msg, "not found"):
		return newReshipError(err.Error(), goerrors.CategoryNotFound, ReshipErrorQuoteNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newReshipError(err.Error(), goerrors.CategoryBadInput, ReshipErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureReshipErrorEnvelope(mapped)
}

func newReshipError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureReshipErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureReshipErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = reshipHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultReshipTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultReshipTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ReshipErrorBadInput
	case goerrors.CategoryNotFound:
		return ReshipErrorQuoteNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ReshipErrorSignatureInvalid
	case goerrors.CategoryConflict:
		return ReshipErrorDuplicateEvent
	default:
		return ReshipErrorInternal
	}
}

func reshipHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
