package ledger

import "errors"

var (
	ErrInvalidCategory = errors.New("invalid category or subcategory")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrInvalidDate     = errors.New("transaction date is required")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrInvalidAccount  = errors.New("username and password are required")
	// ErrAccessDenied covers both an unknown user and a wrong password.
	ErrAccessDenied = errors.New("access denied")
)

// IsValidation reports whether err is a rejected input rather than a
// storage failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrInvalidAccount)
}
