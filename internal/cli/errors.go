package cli

import (
	"errors"

	"github.com/aidanlsb/proveit/internal/atomicfile"
	"github.com/aidanlsb/proveit/internal/edit"
	"github.com/aidanlsb/proveit/internal/index"
)

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts and editors.
const (
	// Config errors
	ErrConfigInvalid    = "CONFIG_INVALID"
	ErrTemplatesInvalid = "TEMPLATES_INVALID"

	// Reference errors
	ErrRefNotFound      = "REF_NOT_FOUND"
	ErrRefUnnamed       = "REF_UNNAMED"
	ErrRefNotTemplate   = "REF_NOT_TEMPLATE"
	ErrTemplateNotFound = "TEMPLATE_NOT_FOUND"

	// Edit errors
	ErrTextChanged = "TEXT_CHANGED"
	ErrOutOfRange  = "OUT_OF_RANGE"
	ErrOverlap     = "EDIT_OVERLAP"

	// File errors
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Database errors
	ErrDatabaseError  = "DATABASE_ERROR"
	ErrDatabaseLocked = "DATABASE_LOCKED"

	// Input errors
	ErrInvalidInput    = "INVALID_INPUT"
	ErrMissingArgument = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// Warning codes for non-fatal issues.
const (
	WarnMissingRequired   = "MISSING_REQUIRED_PARAM"
	WarnDeprecatedParam   = "DEPRECATED_PARAM"
	WarnUnknownParam      = "UNKNOWN_PARAM"
	WarnPositionalShift   = "POSITIONAL_SHIFT"
	WarnIndexUpdateFailed = "INDEX_UPDATE_FAILED"
)

// editErrorCode maps errors from the edit and buffer layers to error codes.
func editErrorCode(err error) string {
	switch {
	case errors.Is(err, edit.ErrNotFound):
		return ErrRefNotFound
	case errors.Is(err, edit.ErrUnnamed):
		return ErrRefUnnamed
	case errors.Is(err, edit.ErrOutOfRange):
		return ErrOutOfRange
	case errors.Is(err, edit.ErrOverlap):
		return ErrOverlap
	case errors.Is(err, atomicfile.ErrChanged):
		return ErrTextChanged
	case errors.Is(err, index.ErrIndexLocked):
		return ErrDatabaseLocked
	default:
		return ErrFileWriteError
	}
}
