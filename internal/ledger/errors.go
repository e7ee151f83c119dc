package ledger

import "errors"

// Errors returned by ledger operations. Callers match them with errors.Is.
var (
	ErrDuplicateUser       = errors.New("user already exists")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMatchClosed         = errors.New("match is closed for betting")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadySettled      = errors.New("match already settled")
	ErrInvalidResult       = errors.New("invalid result")
	ErrInvalidPrediction   = errors.New("invalid prediction")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidInput        = errors.New("invalid input")
)
