// Package docs registers the Swagger document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://github.com/Kamar-Folarin"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/members": {
            "get": {"tags": ["members"], "summary": "List members", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/members/{login}": {
            "get": {"tags": ["members"], "summary": "Get member", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "GitHub login", "name": "login", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/stats/overall": {
            "get": {"tags": ["stats"], "summary": "Overall statistics", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No snapshot loaded yet", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/repositories": {
            "get": {"tags": ["repositories"], "summary": "List repositories", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/repositories/{name}/timeline": {
            "get": {"tags": ["repositories"], "summary": "Repository timeline", "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Repository name", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/projects": {
            "get": {"tags": ["projects"], "summary": "List projects", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "state", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/projects/{number}": {
            "get": {"tags": ["projects"], "summary": "Get project", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "number", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}},
            "put": {"tags": ["projects"], "summary": "Create or replace project", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "number", "in": "path", "required": true},
                    {"name": "project", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ProjectRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}},
            "delete": {"tags": ["projects"], "summary": "Delete project",
                "parameters": [{"type": "integer", "name": "number", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/projects/{number}/timeline": {
            "get": {"tags": ["projects"], "summary": "Project timeline", "produces": ["application/json"],
                "parameters": [{"type": "integer", "name": "number", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/issues": {
            "get": {"tags": ["issues"], "summary": "List issues", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "repo", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "string", "name": "assignee", "in": "query"},
                    {"type": "string", "name": "project", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/pulls": {
            "get": {"tags": ["pulls"], "summary": "List pull requests", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "string", "name": "repo", "in": "query"},
                    {"type": "string", "name": "author", "in": "query"},
                    {"type": "string", "name": "state", "in": "query"},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"},
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/sync": {
            "get": {"tags": ["sync"], "summary": "Get sync status", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No sync has run yet", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}},
            "post": {"tags": ["sync"], "summary": "Trigger sync", "produces": ["application/json"],
                "responses": {"202": {"description": "Accepted"}, "409": {"description": "Sync already in progress", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}}}
        },
        "/sync/history": {
            "get": {"tags": ["sync"], "summary": "Sync history", "produces": ["application/json"],
                "parameters": [{"type": "integer", "default": 20, "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "project not found: 7"}}
        },
        "api.ProjectRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.ProjectItem"}}
            }
        },
        "models.ProjectItem": {
            "type": "object",
            "properties": {
                "issue_number": {"type": "integer"},
                "repository": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Team Insights API",
	Description:      "Team activity statistics, timelines and sync control over GitHub data",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
