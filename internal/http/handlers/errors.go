// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings returned in the `code` field
// of ErrorResponse. Clients branch on them; messages are for humans only.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "duplicate_appointment",
//	  "message": "an appointment for this vehicle already exists on that date"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidation    = "validation_failed"
	ErrCodeDuplicate     = "duplicate_appointment"
	ErrCodeStorageRead   = "storage_read_failed"
	ErrCodeStorageWrite  = "storage_write_failed"
	ErrCodeExportFailed  = "export_failed"
	ErrCodeIDUnavailable = "id_unavailable"
)
