package domain

// APIError is the JSON body of every failed request
type APIError struct {
	Error  string            `json:"error"`
	Type   string            `json:"type"`
	Status int               `json:"status"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidationMessages maps validator tags without a dedicated message to user-facing text
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"url":      "Must be a valid URL",
	"uuid":     "Must be a valid UUID",
	"oneof":    "Must be one of the allowed values",
	"len":      "Must be exactly the specified length",
	"date":     "Must be a date in YYYY-MM-DD format",
	"password": "Must be at least 8 characters with an uppercase letter, a lowercase letter and a number",
	"eqfield":  "Must match",
	"numeric":  "Must be a numeric value",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Error types reported in APIError.Type
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeUnavailable  = "unavailable"
	ErrorTypeInternal     = "internal_error"
)
