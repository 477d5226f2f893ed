package license

import "errors"

// Error codes.
const (
	CodeInvalidKey = "INVALID_KEY"
	CodeExpired    = "LICENSE_EXPIRED"
	CodeRevoked    = "LICENSE_REVOKED"
	CodeDisabled   = "LICENSE_DISABLED"
	CodeNoLicense  = "NO_LICENSE"
	CodeNetwork    = "NETWORK"
)

// Error is a licensing failure with a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// HasCode reports whether err is a license *Error with the given code.
func HasCode(err error, code string) bool {
	var le *Error
	return errors.As(err, &le) && le.Code == code
}
