package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexOperationsMergeAndOrder(t *testing.T) {
	doc := loadDoc(t, `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/users/{id}": {
      "parameters": [
        {"name": "id", "in": "path", "schema": {"type": "string"}},
        {"name": "verbose", "in": "query", "schema": {"type": "boolean"}}
      ],
      "get": {
        "operationId": "getUser",
        "parameters": [
          {"name": "verbose", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      },
      "delete": {"responses": {"204": {"description": "gone"}}}
    },
    "/contacts": {
      "get": {"responses": {"200": {"description": "ok"}}}
    }
  }
}`)
	ops := IndexOperations(doc)
	require.Len(t, ops, 3)

	// Sorted by path then method.
	assert.Equal(t, "GET /contacts", ops[0].Key)
	assert.Equal(t, "DELETE /users/{id}", ops[1].Key)
	assert.Equal(t, "GET /users/{id}", ops[2].Key)

	get := ops[2]
	assert.Equal(t, "getUser", get.OperationID)
	assert.Equal(t, []string{"id"}, get.PathVars)
	require.Len(t, get.Parameters, 2)

	// Path-item order kept; path param forced required.
	assert.Equal(t, "id", get.Parameters[0].Name)
	assert.Equal(t, "path", get.Parameters[0].In)
	assert.True(t, get.Parameters[0].Required)

	// Operation-level wins the (in, name) collision.
	assert.Equal(t, "verbose", get.Parameters[1].Name)
	assert.True(t, get.Parameters[1].Required)
	require.NotNil(t, get.Parameters[1].Schema)
	assert.True(t, get.Parameters[1].Schema.Value.Type.Is("string"))

	// The shared parameters still apply to the sibling method.
	del := ops[1]
	require.Len(t, del.Parameters, 2)
	assert.False(t, del.Parameters[1].Required)
}

func TestIndexOperationsDropsMalformedParams(t *testing.T) {
	doc := loadDoc(t, `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/x": {
      "get": {
        "parameters": [
          {"name": "ok", "in": "query"},
          {"name": "weird", "in": "body"},
          {"in": "query"}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`)
	ops := IndexOperations(doc)
	require.Len(t, ops, 1)
	require.Len(t, ops[0].Parameters, 1)
	assert.Equal(t, "ok", ops[0].Parameters[0].Name)
}

func TestSecurityOverrides(t *testing.T) {
	doc := loadDoc(t, `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "security": [{"bearerAuth": []}],
  "paths": {
    "/open": {
      "get": {"security": [], "responses": {"200": {"description": "ok"}}}
    },
    "/locked": {
      "get": {"responses": {"200": {"description": "ok"}}}
    },
    "/scoped": {
      "get": {
        "security": [{"oauth": ["read", "write"]}, {"apiKey": []}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {"securitySchemes": {"bearerAuth": {"type": "http", "scheme": "bearer"}}}
}`)
	ops := IndexOperations(doc)
	require.Len(t, ops, 3)

	locked := ops[0] // /locked sorts first
	assert.Equal(t, "GET /locked", locked.Key)
	require.Len(t, locked.Security, 1)
	assert.Equal(t, "bearerAuth", locked.Security[0][0].Key)

	open := ops[1]
	assert.Equal(t, "GET /open", open.Key)
	assert.Empty(t, open.Security) // explicit [] disables inherited auth

	scoped := ops[2]
	require.Len(t, scoped.Security, 2)
	assert.Equal(t, "oauth", scoped.Security[0][0].Key)
	assert.Equal(t, []string{"read", "write"}, scoped.Security[0][0].Scopes)
	assert.Equal(t, "apiKey", scoped.Security[1][0].Key)
}

func TestRequestBodyNormalization(t *testing.T) {
	doc := loadDoc(t, `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "paths": {
    "/things": {
      "post": {
        "requestBody": {
          "required": true,
          "content": {
            "text/csv": {"schema": {"type": "string"}},
            "application/json": {"schema": {"type": "object"}}
          }
        },
        "responses": {"201": {"description": "ok"}}
      }
    }
  }
}`)
	ops := IndexOperations(doc)
	require.Len(t, ops, 1)
	rb := ops[0].RequestBody
	require.NotNil(t, rb)
	assert.True(t, rb.Required)
	assert.Equal(t, []string{"application/json", "text/csv"}, rb.ContentTypes)
	assert.Equal(t, "application/json", rb.PreferredContentType())
}

func TestPreferredContentTypeFallbacks(t *testing.T) {
	rb := &RequestBody{ContentTypes: []string{"application/vnd.api+json", "text/plain"}}
	assert.Equal(t, "application/vnd.api+json", rb.PreferredContentType())

	rb = &RequestBody{ContentTypes: []string{"application/xml", "text/plain"}}
	assert.Equal(t, "application/xml", rb.PreferredContentType())

	assert.Equal(t, "", (*RequestBody)(nil).PreferredContentType())
}

func TestTemplateVars(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, TemplateVars("/a/{x}/b/{y}"))
	assert.Nil(t, TemplateVars("/plain/path"))
	assert.Equal(t, []string{"region"}, TemplateVars("https://{region}.api.example.com"))
}
