package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grade Book API",
        "description": "Class grade book with assessment sessions, recaps and report exports",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Login for admins, teachers and students"},
        {"name": "Bootstrap", "description": "Viewer scoped dataset and reloads"},
        {"name": "Students", "description": "Roster management and import"},
        {"name": "Grades", "description": "Score entry"},
        {"name": "Sessions", "description": "Assessment history and slot unlocking"},
        {"name": "Teachers", "description": "Teacher accounts"},
        {"name": "Settings", "description": "School settings and chapter visibility"},
        {"name": "Recap", "description": "Class recap, monitoring and student dashboard"},
        {"name": "Reports", "description": "Recap exports"}
    ],
    "paths": {
        "/health": {
            "get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/ready": {
            "get": {"summary": "Readiness check", "responses": {"200": {"description": "Ready"}, "503": {"description": "Data not loaded"}}}
        },
        "/metrics": {
            "get": {"summary": "Prometheus metrics", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current viewer",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/bootstrap": {
            "get": {
                "tags": ["Bootstrap"],
                "summary": "Dataset visible to the viewer",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/bootstrap/reload": {
            "post": {
                "tags": ["Bootstrap"],
                "summary": "Reload data from the sync backend",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Reload failed, current data kept", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/students/import": {
            "post": {
                "tags": ["Students"],
                "summary": "Import a roster from CSV or XLSX",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"},
                    {"name": "class_name", "in": "formData", "type": "string"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete student",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/grades": {
            "put": {
                "tags": ["Grades"],
                "summary": "Save one score",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot not opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/grades/reset": {
            "post": {
                "tags": ["Grades"],
                "summary": "Clear every score of a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecapScope"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List assessment sessions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "enum": ["odd", "even"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Open an assessment session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpenSessionRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/sessions/available": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Slots not yet opened",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "string", "enum": ["odd", "even"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/sessions/{id}": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete a session",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/teachers/{id}": {
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Get settings",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Save settings",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Settings"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/chapter-configs/{subject}": {
            "get": {
                "tags": ["Settings"],
                "summary": "Chapter visibility of a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "subject", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Override chapter visibility of a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "subject", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChapterConfigRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/recap": {
            "get": {
                "tags": ["Recap"],
                "summary": "Class recap",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "string", "enum": ["odd", "even"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/monitoring": {
            "get": {
                "tags": ["Recap"],
                "summary": "Outstanding and remedial students per session",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "class", "in": "query", "required": true, "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "string", "enum": ["odd", "even"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/me/grades": {
            "get": {
                "tags": ["Recap"],
                "summary": "Student dashboard",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string", "enum": ["odd", "even"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports": {
            "post": {
                "tags": ["Reports"],
                "summary": "Render a recap report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/reports/download/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a rendered report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["admin", "teacher", "student"]},
                "username": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["kind", "username", "password"]
        },
        "StudentRequest": {
            "type": "object",
            "properties": {
                "roll_number": {"type": "string"},
                "reg_number": {"type": "string"},
                "name": {"type": "string"},
                "class_name": {"type": "string"},
                "gender": {"type": "string", "enum": ["M", "F", "L", "P"]}
            },
            "required": ["name", "class_name"]
        },
        "Slot": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["chapter", "kts", "sas"]},
                "chapter": {"type": "string", "enum": ["ch1", "ch2", "ch3", "ch4", "ch5"]},
                "field": {"type": "string", "enum": ["f1", "f2", "f3", "f4", "f5", "sum"]}
            },
            "required": ["kind"]
        },
        "SaveScoreRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject": {"type": "string"},
                "semester": {"type": "string", "enum": ["odd", "even"]},
                "slot": {"$ref": "#/definitions/Slot"},
                "value": {"type": "string", "description": "0-100, empty clears the score"}
            },
            "required": ["student_id", "semester", "slot"]
        },
        "RecapScope": {
            "type": "object",
            "properties": {
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "semester": {"type": "string", "enum": ["odd", "even"]}
            },
            "required": ["class_name", "semester"]
        },
        "OpenSessionRequest": {
            "type": "object",
            "properties": {
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "semester": {"type": "string", "enum": ["odd", "even"]},
                "slot": {"$ref": "#/definitions/Slot"},
                "date": {"type": "string", "format": "date"},
                "description": {"type": "string"}
            },
            "required": ["class_name", "semester", "slot"]
        },
        "TeacherRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "username": {"type": "string"},
                "password": {"type": "string"},
                "classes": {"type": "array", "items": {"type": "string"}},
                "subjects": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["name", "username"]
        },
        "ChapterVisibility": {
            "type": "object",
            "additionalProperties": {"type": "boolean"}
        },
        "Settings": {
            "type": "object",
            "properties": {
                "school_name": {"type": "string"},
                "academic_year": {"type": "string"},
                "default_subject": {"type": "string"},
                "chapter_visibility": {"$ref": "#/definitions/ChapterVisibility"}
            }
        },
        "ChapterConfigRequest": {
            "type": "object",
            "properties": {
                "visibility": {"$ref": "#/definitions/ChapterVisibility"}
            },
            "required": ["visibility"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "class_name": {"type": "string"},
                "subject": {"type": "string"},
                "semester": {"type": "string", "enum": ["odd", "even"]},
                "format": {"type": "string", "enum": ["csv", "pdf", "xlsx"]}
            },
            "required": ["class_name", "semester", "format"]
        },
        "SyncResult": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "status": {"type": "string", "enum": ["ok", "queued", "failed", "timeout", "disabled"]},
                "error": {"type": "string"}
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
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
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
