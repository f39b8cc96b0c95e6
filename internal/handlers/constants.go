package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Parent PIN required"
	ErrForbidden           = "Missing or invalid CSRF token"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInternalServerError = "Internal server error"
	ErrAIUnavailable       = "The word service is not responding, please try again"
	ErrAudioUnavailable    = "Pronunciation is not available for this word"

	// maxBodyBytes bounds JSON request bodies; backups are the largest
	maxBodyBytes = 8 << 20
)
