// Package docs registers the OpenAPI description served by gin-swagger at
// /swagger/*. Regenerate with `swag init -g cmd/server/main.go` after
// changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/appointments": {
            "get": {
                "description": "Returns appointments ordered by date and time. Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "List appointments",
                "operationId": "listAppointments",
                "parameters": [
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"type": "string", "example": "2025-06-01", "description": "First date (inclusive)", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-06-30", "description": "Last date (inclusive)", "name": "to", "in": "query"},
                    {"type": "string", "example": "corolla", "description": "Search client, vehicle, notes", "name": "q", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 200, "minimum": 1, "type": "integer", "default": 50, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.ListAppointmentsResponse"},
                        "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}
                    },
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Storage read failed (strict reads)", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Validates the booking form, rejects a second booking of the same vehicle model on the same date, and stores the appointment.\nSupports idempotency via the Idempotency-Key header (same key → same appointment).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "Book an appointment",
                "operationId": "createAppointment",
                "parameters": [
                    {"type": "string", "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Booking form", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AppointmentInput"}}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/domain.Appointment"},
                        "headers": {
                            "Location": {"type": "string", "description": "URL of the new appointment"},
                            "Idempotency-Replayed": {"type": "string", "description": "true when served from a previous request"}
                        }
                    },
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Duplicate appointment", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/appointments/duplicates": {
            "get": {
                "description": "Reports whether the vehicle model is already booked on the date. Never fails on storage errors (answers false).",
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "Probe for a duplicate booking",
                "operationId": "checkDuplicate",
                "parameters": [
                    {"type": "string", "example": "2025-06-01", "description": "Date", "name": "date", "in": "query", "required": true},
                    {"type": "string", "example": "Toyota Corolla 2020", "description": "Vehicle model", "name": "vehicle_model", "in": "query", "required": true},
                    {"type": "string", "example": "1717236000000", "description": "Appointment to ignore", "name": "exclude_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.DuplicateResponse"}},
                    "400": {"description": "Missing parameters", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/appointments/export.csv": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["Export"],
                "summary": "Export appointments as CSV",
                "operationId": "exportCSV",
                "parameters": [
                    {"type": "string", "description": "First date (inclusive)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Last date (inclusive)", "name": "to", "in": "query"},
                    {"type": "string", "description": "Search filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "CSV document", "schema": {"type": "string"}},
                    "400": {"description": "Bad query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Export failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/appointments/export.ics": {
            "get": {
                "produces": ["text/calendar"],
                "tags": ["Export"],
                "summary": "Export appointments as iCalendar",
                "operationId": "exportICS",
                "parameters": [
                    {"type": "string", "description": "First date (inclusive)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Last date (inclusive)", "name": "to", "in": "query"},
                    {"type": "string", "description": "Search filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "iCalendar document", "schema": {"type": "string"}},
                    "400": {"description": "Bad query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Export failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/appointments/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "Get an appointment",
                "operationId": "getAppointment",
                "parameters": [
                    {"type": "string", "example": "1717236000000", "description": "Appointment ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Appointment"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Storage read failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "description": "Applies the supplied fields. The merged record is validated as a whole; the duplicate rule ignores the appointment itself.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "Edit or reschedule an appointment",
                "parameters": [
                    {"type": "string", "example": "1717236000000", "description": "Appointment ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AppointmentPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Appointment"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Duplicate appointment", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Removes the appointment. Cancelling an unknown id also succeeds.",
                "tags": ["Appointments"],
                "summary": "Cancel an appointment",
                "operationId": "deleteAppointment",
                "parameters": [
                    {"type": "string", "example": "1717236000000", "description": "Appointment ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Applies the supplied fields. The merged record is validated as a whole; the duplicate rule ignores the appointment itself.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Appointments"],
                "summary": "Edit or reschedule an appointment",
                "operationId": "updateAppointment",
                "parameters": [
                    {"type": "string", "example": "1717236000000", "description": "Appointment ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AppointmentPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Appointment"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Duplicate appointment", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Appointment": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "1717236000000"},
                "clientName": {"type": "string", "minLength": 3, "maxLength": 50, "example": "Ana"},
                "vehicleModel": {"type": "string", "maxLength": 50, "example": "Toyota Corolla 2020"},
                "date": {"type": "string", "example": "2025-06-01"},
                "time": {"type": "string", "example": "10:00"},
                "description": {"type": "string", "example": "Oil change"},
                "createdAt": {"type": "string"}
            }
        },
        "domain.AppointmentInput": {
            "type": "object",
            "properties": {
                "clientName": {"type": "string", "minLength": 3, "maxLength": 50, "example": "Ana"},
                "vehicleModel": {"type": "string", "maxLength": 50, "example": "Toyota Corolla 2020"},
                "date": {"type": "string", "example": "2025-06-01"},
                "time": {"type": "string", "example": "10:00"},
                "description": {"type": "string", "maxLength": 200, "example": "Brake pads"}
            }
        },
        "domain.AppointmentPatch": {
            "type": "object",
            "properties": {
                "clientName": {"type": "string"},
                "vehicleModel": {"type": "string"},
                "date": {"type": "string"},
                "time": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "handlers.DuplicateResponse": {
            "type": "object",
            "properties": {
                "duplicate": {"type": "boolean", "example": false}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"description": "Stable, machine-readable code (see errors.go constants)", "type": "string", "example": "not_found"},
                "message": {"description": "Human-readable message (safe to show to users)", "type": "string", "example": "resource not found"},
                "fields": {"description": "Per-field validation messages keyed by JSON field name", "type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "handlers.ListAppointmentsResponse": {
            "type": "object",
            "properties": {
                "appointments": {"type": "array", "items": {"$ref": "#/definitions/domain.Appointment"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Repair Scheduler API",
	Description:      "Appointment book for a vehicle repair shop.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
