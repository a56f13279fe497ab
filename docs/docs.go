// Package docs registers the Swagger description of the HTTP API served at
// /api-docs.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Greeting",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.Message"}
                    }
                }
            }
        },
        "/api/scryfall": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Card data by exact name and set",
                "parameters": [
                    {"type": "string", "description": "Exact card name", "name": "cardName", "in": "query", "required": true},
                    {"type": "string", "description": "Set code, e.g. MH3", "name": "set", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "Scryfall card object, relayed unchanged"},
                    "400": {"description": "Missing cardName or set parameter", "schema": {"$ref": "#/definitions/api.Error"}},
                    "404": {"description": "Scryfall API error: 404", "schema": {"$ref": "#/definitions/api.Error"}},
                    "500": {"description": "Failed to fetch card data", "schema": {"$ref": "#/definitions/api.Error"}},
                    "503": {"description": "Upstream circuit open", "schema": {"$ref": "#/definitions/api.Error"}}
                }
            }
        },
        "/api/card-image": {
            "get": {
                "produces": ["image/png", "image/jpeg"],
                "tags": ["catalog"],
                "summary": "Card image",
                "parameters": [
                    {"type": "string", "description": "Exact card name", "name": "cardName", "in": "query", "required": true},
                    {
                        "enum": ["small", "normal", "large", "png", "art_crop", "border_crop"],
                        "type": "string",
                        "description": "Image rendition, defaults to the configured version",
                        "name": "version",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "Image bytes, cacheable for one day"},
                    "400": {"description": "Missing cardName parameter", "schema": {"$ref": "#/definitions/api.Error"}},
                    "404": {"description": "Scryfall API error: 404", "schema": {"$ref": "#/definitions/api.Error"}},
                    "500": {"description": "Failed to fetch card image", "schema": {"$ref": "#/definitions/api.Error"}},
                    "503": {"description": "Upstream circuit open", "schema": {"$ref": "#/definitions/api.Error"}}
                }
            }
        },
        "/api/sets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Draftable sets",
                "responses": {
                    "200": {"description": "Set list, relayed unchanged"},
                    "500": {"description": "Failed to fetch sets", "schema": {"$ref": "#/definitions/api.Error"}},
                    "503": {"description": "Upstream circuit open", "schema": {"$ref": "#/definitions/api.Error"}}
                }
            }
        },
        "/api/sets/{code}/icon": {
            "get": {
                "produces": ["image/svg+xml"],
                "tags": ["catalog"],
                "summary": "Set icon",
                "parameters": [
                    {"type": "string", "description": "Set code", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Icon bytes, cacheable for one day"},
                    "400": {"description": "Missing set code parameter", "schema": {"$ref": "#/definitions/api.Error"}},
                    "404": {"description": "Failed to fetch icon: 404", "schema": {"$ref": "#/definitions/api.Error"}},
                    "500": {"description": "Failed to fetch set icon", "schema": {"$ref": "#/definitions/api.Error"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.HealthStatus"}}
                }
            }
        },
        "/health/deep": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Dependency health",
                "responses": {
                    "200": {"description": "Every dependency is healthy", "schema": {"$ref": "#/definitions/api.DeepHealth"}},
                    "503": {"description": "At least one dependency is unhealthy", "schema": {"$ref": "#/definitions/api.DeepHealth"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness",
                "responses": {
                    "200": {"description": "Preparation succeeded", "schema": {"$ref": "#/definitions/api.Ready"}},
                    "503": {"description": "Preparation pending or failed", "schema": {"$ref": "#/definitions/api.Ready"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["meta"],
                "summary": "Prometheus metrics, when enabled",
                "responses": {
                    "200": {"description": "Prometheus text exposition"}
                }
            }
        }
    },
    "definitions": {
        "api.Message": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Hello from the MTGA Analyzer Backend!"}
            }
        },
        "api.Error": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "api.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "mode": {"type": "string", "example": "shallow"}
            }
        },
        "api.DeepHealth": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["healthy", "unhealthy"]},
                "dependencies": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/health.ProbeResult"}
                }
            }
        },
        "api.Ready": {
            "type": "object",
            "properties": {
                "ready": {"type": "boolean"}
            }
        },
        "health.ProbeResult": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "ok": {"type": "boolean"},
                "latencyMs": {"type": "integer"},
                "error": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "MTGA Analyzer API",
	Description:      "Backend for the MTGA draft analyzer: relays Scryfall card data and images and the draft assistant's set catalog behind a cache.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
