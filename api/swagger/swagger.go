package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Gradebook API",
        "description": "Course grade computation, rosters and gradebook administration",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Gradebooks", "description": "Gradebook settings, categories, assignments and scores"},
        {"name": "Grades", "description": "Computed course grades and rosters"},
        {"name": "Properties", "description": "Deployment properties"}
    ],
    "paths": {
        "/gradebooks": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Create gradebook",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradebookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate uid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "Get gradebook",
                "parameters": [{"$ref": "#/parameters/gradebookId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Update gradebook settings",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateGradebookRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale version", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Mapping change blocked by overrides", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/grade-mappings": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "List grade mappings",
                "parameters": [{"$ref": "#/parameters/gradebookId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/course-grade-overrides": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "Report whether any course grade override exists",
                "parameters": [{"$ref": "#/parameters/gradebookId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/categories": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "List categories",
                "parameters": [{"$ref": "#/parameters/gradebookId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Create category",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CategoryRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/categories/{categoryId}": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Update category",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "categoryId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CategoryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale version", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Gradebooks"],
                "summary": "Remove category",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "categoryId", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/version"}
                ],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/gradebooks/{id}/assignments": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "List assignments",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "category_id", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Create assignment",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/assignments/{assignmentId}": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Update assignment",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignmentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Gradebooks"],
                "summary": "Remove assignment",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/version"}
                ],
                "responses": {"204": {"description": "Removed"}}
            }
        },
        "/gradebooks/{id}/assignments/{assignmentId}/scores/{studentId}": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Set a student's score",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/studentId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Stale version", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/students": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "List enrolled students",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/students/{studentId}": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Enroll student",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"$ref": "#/parameters/studentId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollStudentRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/students/{studentId}/summary": {
            "get": {
                "tags": ["Grades"],
                "summary": "Instructor view of one student",
                "parameters": [{"$ref": "#/parameters/gradebookId"}, {"$ref": "#/parameters/studentId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/students/{studentId}/view": {
            "get": {
                "tags": ["Grades"],
                "summary": "Student-facing grades",
                "parameters": [{"$ref": "#/parameters/gradebookId"}, {"$ref": "#/parameters/studentId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/students/{studentId}/course-grade": {
            "put": {
                "tags": ["Gradebooks"],
                "summary": "Set course grade override",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"$ref": "#/parameters/studentId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CourseGradeOverrideRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Gradebooks"],
                "summary": "Clear course grade override",
                "parameters": [{"$ref": "#/parameters/gradebookId"}, {"$ref": "#/parameters/studentId"}, {"$ref": "#/parameters/version"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/roster": {
            "get": {
                "tags": ["Grades"],
                "summary": "Course grade roster with class averages",
                "parameters": [
                    {"$ref": "#/parameters/gradebookId"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["name", "course_grade"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Configuration violation", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/properties": {
            "get": {
                "tags": ["Properties"],
                "summary": "List properties",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/properties/{name}": {
            "put": {
                "tags": ["Properties"],
                "summary": "Set property",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"value": {"type": "string"}}}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/properties/refresh": {
            "post": {
                "tags": ["Properties"],
                "summary": "Reload properties from storage",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "parameters": {
        "gradebookId": {"name": "id", "in": "path", "required": true, "type": "string"},
        "studentId": {"name": "studentId", "in": "path", "required": true, "type": "string"},
        "version": {"name": "version", "in": "query", "required": true, "type": "integer", "minimum": 1}
    },
    "definitions": {
        "CreateGradebookRequest": {
            "type": "object",
            "required": ["uid", "name"],
            "properties": {
                "uid": {"type": "string"},
                "name": {"type": "string"},
                "grade_type": {"type": "string", "enum": ["POINTS", "PERCENTAGE", "LETTER", "NO_CALCULATED"]},
                "category_type": {"type": "string", "enum": ["NO_CATEGORY", "ONLY_CATEGORY", "WEIGHTED_CATEGORY"]},
                "course_grade_displayed": {"type": "boolean"}
            }
        },
        "UpdateGradebookRequest": {
            "type": "object",
            "required": ["version"],
            "properties": {
                "name": {"type": "string"},
                "grade_type": {"type": "string"},
                "category_type": {"type": "string"},
                "selected_grade_mapping_id": {"type": "string"},
                "course_grade_displayed": {"type": "boolean"},
                "version": {"type": "integer"}
            }
        },
        "CategoryRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "weight": {"type": "number", "minimum": 0, "maximum": 1},
                "drop_lowest": {"type": "integer"},
                "version": {"type": "integer"}
            }
        },
        "AssignmentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "points_possible": {"type": "number"},
                "due_date": {"type": "string", "format": "date-time"},
                "category_id": {"type": "string"},
                "counted": {"type": "boolean"},
                "released": {"type": "boolean"},
                "sort_order": {"type": "integer"},
                "version": {"type": "integer"}
            }
        },
        "ScoreRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "string"},
                "comment": {"type": "string"},
                "version": {"type": "integer"}
            }
        },
        "EnrollStudentRequest": {
            "type": "object",
            "properties": {"display_name": {"type": "string"}}
        },
        "CourseGradeOverrideRequest": {
            "type": "object",
            "properties": {
                "grade": {"type": "string"},
                "version": {"type": "integer"}
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
