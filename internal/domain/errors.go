package domain

import (
	"errors"
	"fmt"
)

// Pre-flight rejections. These never reach the result envelope.
var (
	ErrMissingFile          = errors.New("file is required")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrServiceNotConfigured = errors.New("extraction service is not configured")
)

// PipelineError is a failure raised by one of the extraction stages.
type PipelineError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Kind == KindUpstreamError && e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: %d - %s", msg, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, or "" when err is not a PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func NewExtractionFailure(msg string, cause error) *PipelineError {
	return &PipelineError{Kind: KindExtractionFailure, Message: msg, Err: cause}
}

func NewUnsupportedFormat(kind string) *PipelineError {
	return &PipelineError{Kind: KindUnsupportedFormat, Message: fmt.Sprintf("unsupported file type: %s", kind)}
}

func NewInsufficientContent(length int) *PipelineError {
	return &PipelineError{
		Kind:    KindInsufficientContent,
		Message: fmt.Sprintf("OCR failed to extract meaningful text from the file (%d characters)", length),
	}
}

// NewUpstreamError records a non-2xx completion response, or a transport
// failure when status is 0.
func NewUpstreamError(status int, body string, cause error) *PipelineError {
	return &PipelineError{
		Kind:       KindUpstreamError,
		Message:    "completion API error",
		StatusCode: status,
		Body:       body,
		Err:        cause,
	}
}

func NewMalformedUpstreamResponse(msg string, cause error) *PipelineError {
	return &PipelineError{Kind: KindMalformedUpstreamResponse, Message: "invalid response from completion API: " + msg, Err: cause}
}

func NewInvalidJSON(cause error) *PipelineError {
	return &PipelineError{Kind: KindInvalidJSON, Message: "failed to parse JSON response from completion API", Err: cause}
}

func NewSchemaValidationError(cause error) *PipelineError {
	return &PipelineError{Kind: KindSchemaValidation, Message: "completion output does not match invoice schema", Err: cause}
}
