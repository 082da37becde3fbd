package errors

import "fmt"

// ErrorCode represents a Brushup error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrAttachmentUnreadable  ErrorCode = "ATTACHMENT_UNREADABLE"  // 422
	ErrUnsupportedAttachment ErrorCode = "UNSUPPORTED_ATTACHMENT" // 415
	ErrProviderFailed        ErrorCode = "PROVIDER_FAILED"        // 502
	ErrInternal              ErrorCode = "INTERNAL"               // 500
)

// BrushupError represents a structured error with code, status, and details.
type BrushupError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *BrushupError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *BrushupError {
	return &BrushupError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a record cannot be found.
func NewNotFound(id string) *BrushupError {
	return &BrushupError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewAttachmentUnreadable creates a 422 error for a source image that cannot
// be fetched or decoded.
func NewAttachmentUnreadable(ref string, err error) *BrushupError {
	msg := fmt.Sprintf("cannot read attachment %q", ref)
	if err != nil {
		msg = fmt.Sprintf("cannot read attachment %q: %v", ref, err)
	}
	return &BrushupError{
		Code:    ErrAttachmentUnreadable,
		Status:  422,
		Message: msg,
		Details: map[string]any{"ref": ref},
	}
}

// NewUnsupportedAttachment creates a 415 error for non-image uploads.
func NewUnsupportedAttachment(contentType string) *BrushupError {
	return &BrushupError{
		Code:    ErrUnsupportedAttachment,
		Status:  415,
		Message: fmt.Sprintf("attachment must be an image, got %q", contentType),
		Details: map[string]any{"content_type": contentType},
	}
}

// NewProviderFailed creates a 502 error for a provider call that returned no
// usable image.
func NewProviderFailed(msg string) *BrushupError {
	return &BrushupError{
		Code:    ErrProviderFailed,
		Status:  502,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *BrushupError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &BrushupError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a BrushupError with the given code.
func Is(err error, code ErrorCode) bool {
	if bErr, ok := err.(*BrushupError); ok {
		return bErr.Code == code
	}
	return false
}
