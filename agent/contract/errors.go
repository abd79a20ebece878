package contract

import "errors"

var (
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrRepairExhausted   = errors.New("repair attempts exhausted")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrInvalidParameters = errors.New("invalid tool parameters")
	ErrToolFailure       = errors.New("tool call failed")
)
