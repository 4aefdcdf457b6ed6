package handlers

const (
	maxBodyBytes = 1 << 16

	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests"

	statusOK       = "ok"
	statusNotFound = "not_found"
)
