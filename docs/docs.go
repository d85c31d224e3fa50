// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/api/auth/register": {
            "post": {
                "tags": ["auth"], "summary": "Register a new user",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Log in",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"], "summary": "Current user", "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "tags": ["events"], "summary": "List events", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"], "summary": "Create an event",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "event", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateEventRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/events/{eventID}": {
            "get": {
                "tags": ["events"], "summary": "Get an event", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Event ID", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"], "summary": "Update an event",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "eventID", "in": "path", "required": true},
                    {"in": "body", "name": "event", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["events"], "summary": "Delete an event", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Event ID", "name": "eventID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/bookings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"], "summary": "List my bookings", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"], "summary": "Book tickets",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "booking", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateBookingRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request or insufficient_capacity", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "error.code: retryable", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/bookings/{bookingID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["bookings"], "summary": "Cancel my booking", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Booking ID", "name": "bookingID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "503": {"description": "error.code: retryable", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/admin/bookings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"], "summary": "List all bookings", "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "description": "Page number (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Page size (default 20, max 100)", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "403": {"description": "error.code: forbidden", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/admin/bookings/{bookingID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"], "summary": "Cancel any booking", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Booking ID", "name": "bookingID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/api/admin/events/{eventID}/capacity": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"], "summary": "Adjust ticket availability",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "eventID", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.AdjustCapacityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "400": {"description": "error.code: bad_request or insufficient_capacity", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.AdjustCapacityRequest": {"type": "object", "properties": {"delta": {"type": "integer"}}},
        "controllers.CreateBookingRequest": {"type": "object", "properties": {"event_id": {"type": "string"}, "tickets_booked": {"type": "integer"}}},
        "controllers.CreateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"}, "date": {"type": "string"}, "location": {"type": "string"},
                "ticket_availability": {"type": "integer"}, "ticket_price": {"type": "number"}
            }
        },
        "controllers.UpdateEventRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}, "date": {"type": "string"}, "location": {"type": "string"}, "ticket_price": {"type": "number"}}
        },
        "controllers.LoginRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "controllers.RegisterRequest": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}, "password": {"type": "string"}}},
        "helpers.APIError": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}},
        "helpers.APIResponse": {"type": "object", "properties": {"data": {}, "error": {"$ref": "#/definitions/helpers.APIError"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Booking API",
	Description:      "Event catalogue and ticket booking with an oversell-proof inventory ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
