package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Series API",
        "description": "Recurring class series consolidation, expiration proposals and enrollment state",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Instances", "description": "Class instances and enrollment actions"},
        {"name": "Series", "description": "Recurring series and bulk series operations"},
        {"name": "Sessions", "description": "Session scoped extension proposals"},
        {"name": "Days", "description": "Whole day cancellation and rosters"}
    ],
    "paths": {
        "/instances": {
            "get": {
                "tags": ["Instances"],
                "summary": "List class instances classified for the caller",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "type", "in": "query", "type": "string", "description": "Class type id or all"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/SnapshotVersion"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Snapshot superseded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/snapshot/refresh": {
            "post": {
                "tags": ["Instances"],
                "summary": "Refetch class instances and list the new snapshot",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date"},
                    {"name": "type", "in": "query", "type": "string", "description": "Class type id or all"},
                    {"name": "q", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/instances/{id}/enrollment": {
            "post": {
                "tags": ["Instances"],
                "summary": "Take a seat in a class",
                "parameters": [{"$ref": "#/parameters/InstanceID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Action not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Instances"],
                "summary": "Release a seat",
                "parameters": [{"$ref": "#/parameters/InstanceID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Action not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/instances/{id}/waitlist": {
            "post": {
                "tags": ["Instances"],
                "summary": "Join the waitlist of a full class",
                "parameters": [{"$ref": "#/parameters/InstanceID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Action not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Instances"],
                "summary": "Leave the waitlist",
                "parameters": [{"$ref": "#/parameters/InstanceID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Action not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series": {
            "get": {
                "tags": ["Series"],
                "summary": "List recurring series",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/SnapshotVersion"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/expirations/detect": {
            "post": {
                "tags": ["Series"],
                "summary": "Propose extending a series with one remaining instance",
                "responses": {
                    "200": {"description": "Proposal or null", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/bulk/edit": {
            "post": {
                "tags": ["Series"],
                "summary": "Edit every future instance of a series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkEditRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed series", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/bulk/extend": {
            "post": {
                "tags": ["Series"],
                "summary": "Extend a series to a new end date",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkExtendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid date range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed series", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/series/bulk/delete": {
            "post": {
                "tags": ["Series"],
                "summary": "Delete every future instance of a series",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkDeleteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed series", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/current/proposals": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List extension proposals delivered to this session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sessions/current": {
            "delete": {
                "tags": ["Sessions"],
                "summary": "Drop the session state on logout",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/days/{date}/cancel": {
            "post": {
                "tags": ["Days"],
                "summary": "Cancel every class on a day",
                "parameters": [
                    {"$ref": "#/parameters/Date"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CancelDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/days/{date}/reactivate": {
            "post": {
                "tags": ["Days"],
                "summary": "Reactivate the cancelled classes of a day",
                "parameters": [{"$ref": "#/parameters/Date"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/days/{date}/export": {
            "get": {
                "tags": ["Days"],
                "summary": "Download the roster of a day",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/Date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Roster file", "schema": {"type": "file"}}
                }
            }
        }
    },
    "parameters": {
        "InstanceID": {"name": "id", "in": "path", "required": true, "type": "string"},
        "Date": {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
        "SnapshotVersion": {"name": "snapshot_version", "in": "query", "type": "integer", "description": "Pin the snapshot; 409 when superseded"}
    },
    "definitions": {
        "TeacherRef": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "BulkEditRequest": {
            "type": "object",
            "required": ["series_id"],
            "properties": {
                "series_id": {"type": "string"},
                "snapshot_version": {"type": "integer"},
                "start_time": {"type": "string", "example": "08:00"},
                "end_time": {"type": "string", "example": "09:00"},
                "capacity": {"type": "integer"},
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/TeacherRef"}},
                "weekdays": {"type": "array", "items": {"type": "integer", "minimum": 0, "maximum": 6}}
            }
        },
        "BulkExtendRequest": {
            "type": "object",
            "required": ["series_id", "new_end_date"],
            "properties": {
                "series_id": {"type": "string"},
                "snapshot_version": {"type": "integer"},
                "new_end_date": {"type": "string", "format": "date"}
            }
        },
        "BulkDeleteRequest": {
            "type": "object",
            "required": ["series_id"],
            "properties": {
                "series_id": {"type": "string"},
                "snapshot_version": {"type": "integer"}
            }
        },
        "CancelDayRequest": {
            "type": "object",
            "properties": {
                "refund_credits": {"type": "boolean"}
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
