package apperror

import (
	"fmt"
	"net/http"
)

// Kind classifies a ledger failure. Every rejected call maps to exactly one kind.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInvalidState Kind = "INVALID_STATE"
	KindConflict     Kind = "CONFLICT"
	KindValidation   Kind = "VALIDATION"
	KindInternal     Kind = "INTERNAL"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, kind Kind, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, kind Kind, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Kind:       kind,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Kind == kind
}

// ---- Generic taxonomy (LED) ----

// NotFound reports a missing credit, listing, verification, retirement or verifier.
func NotFound(entity string) *AppError {
	return New("LED_001", KindNotFound, fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// Unauthorized reports a failed ownership or role check.
func Unauthorized(message string) *AppError {
	return New("LED_002", KindUnauthorized, message, http.StatusForbidden)
}

// InvalidState reports an operation that is not valid for the record's current status.
func InvalidState(message string) *AppError {
	return New("LED_003", KindInvalidState, message, http.StatusUnprocessableEntity)
}

// Conflict reports a duplicate vote, an already-issued certificate or a duplicate record.
func Conflict(message string) *AppError {
	return New("LED_004", KindConflict, message, http.StatusConflict)
}

// Validation reports missing or malformed required fields.
func Validation(message string) *AppError {
	return New("LED_005", KindValidation, message, http.StatusBadRequest)
}

// ---- Marketplace (MKT) ----

func ErrInsufficientFunds() *AppError {
	return New("MKT_001", KindValidation, "Insufficient settlement balance", http.StatusPaymentRequired)
}

func ErrSelfTrade() *AppError {
	return New("MKT_002", KindValidation, "Buyer and seller must differ", http.StatusBadRequest)
}

func ErrQuantityExceedsListing() *AppError {
	return New("MKT_003", KindValidation, "Quantity exceeds listing quantity", http.StatusBadRequest)
}

// ---- Verification (VER) ----

func ErrDuplicateVote() *AppError {
	return New("VER_001", KindConflict, "Principal has already voted on this verification", http.StatusConflict)
}

func ErrVerifierNotActive() *AppError {
	return New("VER_002", KindUnauthorized, "Verifier is not registered or not active", http.StatusForbidden)
}

// ---- Retirement (RET) ----

func ErrCertificateExists() *AppError {
	return New("RET_001", KindConflict, "Certificate already issued for this retirement", http.StatusConflict)
}

func ErrCreditRetired(creditID string) *AppError {
	return New("RET_002", KindInvalidState, fmt.Sprintf("credit %s is already retired", creditID), http.StatusUnprocessableEntity)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", KindInternal, "Internal server error", http.StatusInternalServerError, err)
}

// ErrStorage wraps a state-store failure.
func ErrStorage(err error) *AppError {
	return Wrap("SYS_002", KindInternal, "State store error", http.StatusInternalServerError, err)
}
