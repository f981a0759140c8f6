package meta

import (
	"errors"
	"fmt"
)

// APIError is a classified Graph API error envelope.
//
// Classification is by numeric code, per the Graph error documentation:
// 32/4 app or user request ceiling, 190 expired or invalidated token,
// 10/200 missing permission.
type APIError struct {
	Message string
	Code    int
	Subcode int
	TraceID string
}

func (e *APIError) Error() string {
	if e.Subcode != 0 {
		return fmt.Sprintf("meta api error %d/%d: %s", e.Code, e.Subcode, e.Message)
	}
	return fmt.Sprintf("meta api error %d: %s", e.Code, e.Message)
}

func (e *APIError) IsRateLimited() bool {
	return e.Code == 32 || e.Code == 4
}

func (e *APIError) IsTokenExpired() bool {
	return e.Code == 190
}

func (e *APIError) IsPermissionError() bool {
	return e.Code == 10 || e.Code == 200
}

// AsAPIError unwraps err to its *APIError, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ValidationError reports bad caller input. It is raised before any network
// call and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a caller-input error.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
