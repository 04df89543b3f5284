package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Timetable Core API",
        "description": "Course assignment conflict detection, calendar projections and utilization statistics.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Assignments", "description": "Ingestion, placement and removal of course assignments"},
        {"name": "Views", "description": "Week, month, semester and overview projections"},
        {"name": "Statistics", "description": "Utilization and distribution figures"},
        {"name": "Conflicts", "description": "Whole-store conflict report"},
        {"name": "Tasks", "description": "Scheduling task lifecycle"}
    ],
    "paths": {
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List stored assignments",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Store an assignment; conflicts are returned in meta",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or malformed slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Missing resource id under strict policy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Storage failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/load": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Bulk ingest raw records, or reload from the database when the body is empty",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/LoadAssignmentsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/propose": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Check a candidate for conflicts without storing it",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{courseId}": {
            "delete": {
                "tags": ["Assignments"],
                "summary": "Remove an assignment",
                "parameters": [
                    {"name": "courseId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/views/{mode}": {
            "get": {
                "tags": ["Views"],
                "summary": "Project assignments into a calendar view",
                "parameters": [
                    {"name": "mode", "in": "path", "required": true, "type": "string", "enum": ["week", "month", "semester", "overview"]},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "weeks", "in": "query", "type": "string"},
                    {"name": "days", "in": "query", "type": "string"},
                    {"name": "periods", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics": {
            "get": {
                "tags": ["Statistics"],
                "summary": "Aggregate statistics; meta.cache_hit reports cache use",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/statistics/lookups": {
            "put": {
                "tags": ["Statistics"],
                "summary": "Replace building and course type mappings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LookupsRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Report every overlapping pair in the store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "tags": ["Tasks"],
                "summary": "List scheduling tasks",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "SCHEDULED", "COMPLETED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tasks"],
                "summary": "Register a scheduling task",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/schedule": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Place a pending task",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/rerun": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Remove the task's assignment and return it to pending",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasks/{id}/complete": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Mark a scheduled task as completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AssignmentRequest": {
            "type": "object",
            "required": ["course_id", "course_name", "classroom_id", "slot"],
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "classroom_id": {"type": "string"},
                "classroom_name": {"type": "string"},
                "slot": {"type": "string", "example": "5:1-2"},
                "teacher_id": {"type": "string"},
                "class_section_ids": {"type": "array", "items": {"type": "string"}},
                "weeks": {"type": "string", "example": "1-8,10"}
            }
        },
        "RawAssignment": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "classroom_id": {"type": "string"},
                "classroom_name": {"type": "string"},
                "slot": {"type": "string"},
                "weeks": {"type": "string"},
                "teacher_id": {"type": "string"},
                "class_section_ids": {"type": "string", "example": "CS-1,CS-2"}
            }
        },
        "LoadAssignmentsRequest": {
            "type": "object",
            "properties": {
                "records": {"type": "array", "items": {"$ref": "#/definitions/RawAssignment"}}
            }
        },
        "LookupsRequest": {
            "type": "object",
            "properties": {
                "buildings": {"type": "object", "additionalProperties": {"type": "string"}},
                "course_types": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "CreateTaskRequest": {
            "type": "object",
            "required": ["course_id", "course_name"],
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "teacher_id": {"type": "string"},
                "class_section_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ScheduleTaskRequest": {
            "type": "object",
            "required": ["classroom_id", "slot"],
            "properties": {
                "classroom_id": {"type": "string"},
                "classroom_name": {"type": "string"},
                "slot": {"type": "string"},
                "weeks": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
