package engine

import "fmt"

const (
	CodeRoomNotFound             = "ROOM_NOT_FOUND"
	CodePermissionDenied         = "PERMISSION_DENIED"
	CodeOutOfBounds              = "OUT_OF_BOUNDS"
	CodeConflictResolutionFailed = "CONFLICT_RESOLUTION_FAILED"
	CodeGenerationFailed         = "GENERATION_FAILED"
	CodeValidationError          = "VALIDATION_ERROR"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func roomNotFound(roomID string) *DomainError {
	return domainError(404, CodeRoomNotFound, "room not found", map[string]any{"roomId": roomID})
}

func permissionDenied(message string, details any) *DomainError {
	return domainError(403, CodePermissionDenied, message, details)
}

func outOfBounds(message string, details any) *DomainError {
	return domainError(422, CodeOutOfBounds, message, details)
}

func conflictResolutionFailed(strategy string) *DomainError {
	return domainError(422, CodeConflictResolutionFailed, "unknown conflict resolution strategy", map[string]any{"strategy": strategy})
}

func generationFailed(message string) *DomainError {
	return domainError(502, CodeGenerationFailed, message, nil)
}

func validationError(message string, details any) *DomainError {
	return domainError(422, CodeValidationError, message, details)
}
