// Package apperror defines the machine-readable error codes returned by the
// API and the static table mapping each code to an HTTP status and default
// message. Clients key their user-facing toasts off Code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidID               Code = "INVALID_ID"
	CodeValidationFailed        Code = "VALIDATION_FAILED"
	CodeNotFound                Code = "NOT_FOUND"
	CodeDuplicateName           Code = "DUPLICATE_NAME"
	CodeDuplicateEmail          Code = "DUPLICATE_EMAIL"
	CodeDuplicateCode           Code = "DUPLICATE_CODE"
	CodeInvalidCredentials      Code = "INVALID_CREDENTIALS"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeForbidden               Code = "FORBIDDEN"
	CodeAccountBlocked          Code = "ACCOUNT_BLOCKED"
	CodeInsufficientStock       Code = "INSUFFICIENT_STOCK"
	CodeCouponInvalid           Code = "COUPON_INVALID"
	CodeCouponExpired           Code = "COUPON_EXPIRED"
	CodeCouponNotStarted        Code = "COUPON_NOT_STARTED"
	CodeCouponMinOrder          Code = "COUPON_MIN_ORDER"
	CodeCouponUsageLimit        Code = "COUPON_USAGE_LIMIT"
	CodeInvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CodePaymentRequired         Code = "PAYMENT_REQUIRED"
	CodeOrderNotCancellable     Code = "ORDER_NOT_CANCELLABLE"
	CodeInternal                Code = "INTERNAL_ERROR"
)

type entry struct {
	status  int
	message string
}

var errorCodeMap = map[Code]entry{
	CodeInvalidID:               {http.StatusBadRequest, "Invalid ID"},
	CodeValidationFailed:        {http.StatusBadRequest, "Validation failed"},
	CodeNotFound:                {http.StatusNotFound, "Resource not found"},
	CodeDuplicateName:           {http.StatusConflict, "Name is already in use"},
	CodeDuplicateEmail:          {http.StatusConflict, "Email already registered"},
	CodeDuplicateCode:           {http.StatusConflict, "Coupon code is already in use"},
	CodeInvalidCredentials:      {http.StatusUnauthorized, "Invalid email or password"},
	CodeUnauthorized:            {http.StatusUnauthorized, "Invalid or expired token"},
	CodeForbidden:               {http.StatusForbidden, "Access denied: admin only"},
	CodeAccountBlocked:          {http.StatusForbidden, "Account is blocked"},
	CodeInsufficientStock:       {http.StatusConflict, "Not enough stock"},
	CodeCouponInvalid:           {http.StatusBadRequest, "Coupon is not valid"},
	CodeCouponExpired:           {http.StatusBadRequest, "Coupon has expired"},
	CodeCouponNotStarted:        {http.StatusBadRequest, "Coupon is not active yet"},
	CodeCouponMinOrder:          {http.StatusBadRequest, "Order total is below the coupon minimum"},
	CodeCouponUsageLimit:        {http.StatusBadRequest, "Coupon usage limit reached"},
	CodeInvalidStatusTransition: {http.StatusBadRequest, "Order status change not allowed"},
	CodePaymentRequired:         {http.StatusBadRequest, "Order must be paid first"},
	CodeOrderNotCancellable:     {http.StatusBadRequest, "Order cannot be cancelled"},
	CodeInternal:                {http.StatusInternalServerError, "Internal server error"},
}

// Error is an error that knows how it should be rendered over HTTP.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return StatusOf(e.Code)
}

// New returns an Error with the code's default message.
func New(code Code) *Error {
	return &Error{Code: code, Message: MessageOf(code)}
}

// Newf returns an Error with a formatted custom message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to an Error carrying code's default message.
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Message: MessageOf(code), Err: err}
}

func StatusOf(code Code) int {
	if e, ok := errorCodeMap[code]; ok {
		return e.status
	}
	return http.StatusInternalServerError
}

func MessageOf(code Code) string {
	if e, ok := errorCodeMap[code]; ok {
		return e.message
	}
	return errorCodeMap[CodeInternal].message
}

// From extracts an *Error from err. Anything else becomes an internal error
// whose message hides the cause.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Wrap(CodeInternal, err)
}

// Is reports whether err carries code.
func Is(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
