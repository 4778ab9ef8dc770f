// Package docs registers the OpenAPI document served at /swagger/doc.json.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/settings": {
            "get": {"tags": ["settings"], "summary": "Read the user settings", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/config.Settings"}}}},
            "put": {"tags": ["settings"], "summary": "Change the selected mode or dataset", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.SettingsRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/config.Settings"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        },
        "/datasets": {
            "get": {"tags": ["datasets"], "summary": "List datasets", "parameters": [{"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/graph.Dataset"}}}}},
            "post": {"tags": ["datasets"], "summary": "Create a dataset seeded with a root node", "parameters": [{"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.CreateDatasetRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/graph.Dataset"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        },
        "/datasets/{datasetID}": {
            "get": {"tags": ["datasets"], "summary": "Get a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graph.Dataset"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        },
        "/datasets/{datasetID}/graph": {
            "get": {"tags": ["datasets"], "summary": "Nodes and links of a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graph.GraphData"}}}}
        },
        "/datasets/{datasetID}/link-types": {
            "get": {"tags": ["datasets"], "summary": "Distinct link types of a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "string"}}}}}
        },
        "/datasets/{datasetID}/nodes": {
            "get": {"tags": ["nodes"], "summary": "List the nodes of a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/graph.Node"}}}}},
            "post": {"tags": ["nodes"], "summary": "Create a node", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.NodeRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/graph.Node"}}}}
        },
        "/datasets/{datasetID}/nodes/{id}": {
            "put": {"tags": ["nodes"], "summary": "Replace a node", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.NodeRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graph.Node"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}},
            "delete": {"tags": ["nodes"], "summary": "Delete a node with its links and visual links", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}, {"in": "query", "name": "recursive", "type": "boolean"}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graphops.DeleteResult"}}}}
        },
        "/datasets/{datasetID}/nodes/{id}/children": {
            "post": {"tags": ["nodes"], "summary": "Create a child node linked to its parent", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}], "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        },
        "/datasets/{datasetID}/links": {
            "get": {"tags": ["links"], "summary": "List the links of a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/graph.Link"}}}}},
            "post": {"tags": ["links"], "summary": "Create a link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.LinkRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/graph.Link"}}}}
        },
        "/datasets/{datasetID}/links/{id}": {
            "put": {"tags": ["links"], "summary": "Replace a link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.LinkRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graph.Link"}}}},
            "delete": {"tags": ["links"], "summary": "Delete a link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/datasets/{datasetID}/visual-links": {
            "get": {"tags": ["visual-links"], "summary": "List the visual links of a dataset", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}, {"in": "query", "name": "type", "type": "string"}], "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/graph.VisualLink"}}}}},
            "post": {"tags": ["visual-links"], "summary": "Create a visual link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.VisualLinkRequest"}}], "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/graph.VisualLink"}}}}
        },
        "/datasets/{datasetID}/visual-links/{id}": {
            "put": {"tags": ["visual-links"], "summary": "Replace a visual link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/rest.VisualLinkRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/graph.VisualLink"}}}},
            "delete": {"tags": ["visual-links"], "summary": "Delete a visual link", "parameters": [{"$ref": "#/parameters/datasetID"}, {"$ref": "#/parameters/id"}, {"$ref": "#/parameters/mode"}], "responses": {"204": {"description": "No Content"}}}
        },
        "/datasets/{datasetID}/sync/pull": {
            "post": {"tags": ["sync"], "summary": "Replace the local copy of a dataset with the remote rows", "parameters": [{"$ref": "#/parameters/datasetID"}], "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        },
        "/datasets/{datasetID}/sync/push": {
            "post": {"tags": ["sync"], "summary": "Replace the remote rows of a dataset with the local ones", "parameters": [{"$ref": "#/parameters/datasetID"}, {"in": "query", "name": "retry", "type": "boolean"}], "responses": {"200": {"description": "OK"}, "207": {"description": "Partial"}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/rest.ErrorResponse"}}}}
        }
    },
    "parameters": {
        "datasetID": {"in": "path", "name": "datasetID", "required": true, "type": "string"},
        "id": {"in": "path", "name": "id", "required": true, "type": "string"},
        "mode": {"in": "query", "name": "mode", "type": "string", "enum": ["local", "remote", "sync"]}
    },
    "definitions": {
        "config.Settings": {"type": "object", "properties": {"dbMode": {"type": "string"}, "dataset": {"type": "string"}}},
        "graph.Dataset": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "created_at": {"type": "string"}, "user": {"type": "string"}, "metadata": {"type": "object"}}},
        "graph.Node": {"type": "object", "properties": {"id": {"type": "string"}, "label": {"type": "string"}, "dataset": {"type": "string"}, "level": {"type": "integer"}, "type": {"type": "string"}}},
        "graph.Link": {"type": "object", "properties": {"id": {"type": "string"}, "source": {"type": "string"}, "target": {"type": "string"}, "dataset": {"type": "string"}, "type": {"type": "string"}}},
        "graph.VisualLink": {"type": "object", "properties": {"id": {"type": "string"}, "source": {"type": "string"}, "target": {"type": "string"}, "dataset": {"type": "string"}, "type": {"type": "string", "x-nullable": true}, "metadata": {"type": "object"}, "created_at": {"type": "string"}}},
        "graph.GraphData": {"type": "object", "properties": {"nodes": {"type": "array", "items": {"$ref": "#/definitions/graph.Node"}}, "links": {"type": "array", "items": {"$ref": "#/definitions/graph.Link"}}}},
        "graphops.DeleteResult": {"type": "object", "properties": {"nodes": {"type": "array", "items": {"type": "string"}}, "links": {"type": "array", "items": {"type": "string"}}, "visual_links": {"type": "array", "items": {"type": "string"}}}},
        "rest.SettingsRequest": {"type": "object", "properties": {"dbMode": {"type": "string"}, "dataset": {"type": "string"}}},
        "rest.CreateDatasetRequest": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}, "user": {"type": "string"}}},
        "rest.NodeRequest": {"type": "object", "properties": {"label": {"type": "string"}, "level": {"type": "integer"}, "type": {"type": "string"}}},
        "rest.LinkRequest": {"type": "object", "required": ["source", "target"], "properties": {"source": {"type": "string"}, "target": {"type": "string"}, "type": {"type": "string"}}},
        "rest.VisualLinkRequest": {"type": "object", "required": ["source", "target"], "properties": {"source": {"type": "string"}, "target": {"type": "string"}, "type": {"type": "string"}, "metadata": {"type": "object"}}},
        "rest.ErrorResponse": {"type": "object", "properties": {"error": {"type": "boolean"}, "message": {"type": "string"}, "status": {"type": "integer"}, "type": {"type": "string"}, "code": {"type": "string"}, "request_id": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Mesh Graph API",
	Description:      "Dataset-scoped graph storage over a local store, a hosted backend, or both.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
