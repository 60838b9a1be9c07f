package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Timetable API",
        "description": "Generates weekly course timetables for academic programs",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Token issuance"},
        {"name": "Timetable", "description": "Allocation runs, stored timetables and exports"},
        {"name": "Scheduler Settings", "description": "Per-program allocation preferences"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/scheduler-settings": {
            "get": {
                "tags": ["Scheduler Settings"],
                "summary": "Get effective scheduler settings",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Program not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Scheduler Settings"],
                "summary": "Update scheduler settings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulerSettings"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate a program timetable synchronously",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Program not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Scheduler disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the stored timetable",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/timetable/conflicts": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List conflicts of the last persisted run",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download the stored timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "layout", "in": "query", "type": "string", "enum": ["list", "grid"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/programs/{id}/timetable/runs": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Queue an asynchronous allocation run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/runs/{runId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get allocation run progress",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "runId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Run not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/runs/{runId}/cancel": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Cancel an allocation run",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "runId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run already finished", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SchedulerSettings": {
            "type": "object",
            "properties": {
                "prioritizeRoomSize": {"type": "boolean"},
                "avoidBackToBack": {"type": "boolean"},
                "balanceLecturerLoad": {"type": "boolean"},
                "maxDailyHours": {"type": "integer"},
                "preferredStartTime": {"type": "integer"},
                "preferredEndTime": {"type": "integer"},
                "allowWeekends": {"type": "boolean"},
                "spreadCoursesAcrossDays": {"type": "boolean"},
                "maxSessionsPerDay": {"type": "integer"},
                "respectCreditHours": {"type": "boolean"},
                "considerRoomCapacity": {"type": "boolean"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "dryRun": {"type": "boolean"},
                "settings": {"$ref": "#/definitions/SchedulerSettings"}
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
