// Package docs registra el documento OpenAPI que sirve /swagger. Se mantiene a mano en
// línea con las anotaciones de los handlers (rutas, parámetros y códigos de respuesta).
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
        "/age-groups": {
            "get": {
                "produces": ["application/json"],
                "tags": ["age-groups"],
                "summary": "Listar grupos etarios",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/agegroups.Directory"}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}},
                    "503": {"description": "age group directory unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/vaccines": {
            "get": {
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Listar vacunas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/vaccines.PersistedRecord"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "string"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Crear vacuna",
                "parameters": [
                    {"type": "string", "description": "Identificador del formulario", "name": "X-Form-ID", "in": "header"},
                    {"description": "Formulario y confirmación", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/vaccines.submitRequest"}}
                ],
                "responses": {
                    "200": {"description": "vista previa", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "409": {"description": "duplicado, cancelado o envío en curso", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "422": {"description": "formulario inválido", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "503": {"description": "falla de persistencia", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}}
                }
            }
        },
        "/vaccines/form/reconcile": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Recalcular formulario",
                "parameters": [
                    {"description": "Formulario actual", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/vaccines.Form"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vaccines.reconcileResponse"}}
                }
            }
        },
        "/vaccines/reconstruct": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Reconstruir formulario desde un registro",
                "parameters": [
                    {"description": "Registro persistido", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/vaccines.PersistedRecord"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vaccines.editFormResponse"}},
                    "503": {"description": "age group directory unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/vaccines/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Obtener vacuna",
                "parameters": [{"type": "string", "description": "ID de la vacuna", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vaccines.PersistedRecord"}},
                    "404": {"description": "vaccine not found", "schema": {"type": "string"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Editar vacuna",
                "parameters": [
                    {"type": "string", "description": "ID de la vacuna", "name": "id", "in": "path", "required": true},
                    {"description": "Formulario y confirmación", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/vaccines.submitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "404": {"description": "vaccine not found", "schema": {"type": "string"}},
                    "409": {"description": "duplicado, cancelado o envío en curso", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}},
                    "422": {"description": "formulario inválido", "schema": {"$ref": "#/definitions/vaccines.submitResponse"}}
                }
            },
            "delete": {
                "tags": ["vaccines"],
                "summary": "Borrar vacuna",
                "parameters": [{"type": "string", "description": "ID de la vacuna", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "no content", "schema": {"type": "string"}},
                    "404": {"description": "vaccine not found", "schema": {"type": "string"}}
                }
            }
        },
        "/vaccines/{id}/form": {
            "get": {
                "produces": ["application/json"],
                "tags": ["vaccines"],
                "summary": "Formulario de edición",
                "parameters": [{"type": "string", "description": "ID de la vacuna", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vaccines.editFormResponse"}},
                    "404": {"description": "vaccine not found", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "agegroups.Directory": {"type": "object"},
        "vaccines.Form": {"type": "object"},
        "vaccines.PersistedRecord": {"type": "object"},
        "vaccines.editFormResponse": {"type": "object"},
        "vaccines.reconcileResponse": {"type": "object"},
        "vaccines.submitRequest": {"type": "object"},
        "vaccines.submitResponse": {"type": "object"}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo permite ajustar host o basePath al arrancar.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Health Inventory API",
	Description:      "Catálogo de vacunas: esquemas de dosis, validación de duplicados y flujo de envío.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
