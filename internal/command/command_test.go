package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oascli/oascli/internal/spec"
)

const crmDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Example CRM", "version": "1.2.3"},
  "servers": [{"url": "https://api.example.com"}],
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer"}
    }
  },
  "paths": {
    "/contacts": {
      "get": {
        "tags": ["contacts"],
        "summary": "List contacts",
        "parameters": [
          {"name": "limit", "in": "query", "schema": {"type": "integer"}},
          {"name": "name", "in": "query", "schema": {"type": "string"}},
          {"name": "X-Request-Id", "in": "header", "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      },
      "post": {
        "tags": ["contacts"],
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["name"],
                "properties": {
                  "name": {"type": "string"},
                  "address": {
                    "type": "object",
                    "properties": {
                      "street": {"type": "string"},
                      "city": {"type": "string"}
                    }
                  }
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    },
    "/items": {
      "get": {
        "tags": ["items"],
        "parameters": [
          {"name": "tag", "in": "query", "schema": {"type": "array", "items": {"type": "string"}}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/users/{id}": {
      "get": {
        "tags": ["users"],
        "security": [{"bearerAuth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func buildModel(t *testing.T, doc string) *Model {
	t.Helper()
	d, err := spec.Load(context.Background(), spec.Input{Embedded: doc})
	require.NoError(t, err)
	m, err := Build(d)
	require.NoError(t, err)
	return m
}

func TestBuildGroupsAndSorts(t *testing.T) {
	m := buildModel(t, crmDoc)

	require.Len(t, m.Resources, 3)
	assert.Equal(t, "contacts", m.Resources[0].Name)
	assert.Equal(t, "items", m.Resources[1].Name)
	assert.Equal(t, "users", m.Resources[2].Name)

	names := []string{}
	for _, a := range m.Resources[0].Actions {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"create", "list"}, names)

	list, err := m.Lookup("contacts", "list")
	require.NoError(t, err)
	assert.Equal(t, "example-crm:contacts:list:get-contacts", list.ID)
	assert.Equal(t, "GET /contacts", list.Key)
}

func TestLookupErrors(t *testing.T) {
	m := buildModel(t, crmDoc)

	_, err := m.Lookup("contacts", "explode")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = m.Lookup("widgets", "list")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestFlagsSortedByLocationThenName(t *testing.T) {
	m := buildModel(t, crmDoc)
	list, err := m.Lookup("contacts", "list")
	require.NoError(t, err)

	require.Len(t, list.Flags, 3)
	assert.Equal(t, "header", list.Flags[0].In)
	assert.Equal(t, "x-request-id", list.Flags[0].Flag)
	assert.Equal(t, "xRequestId", list.Flags[0].Key)
	assert.Equal(t, "limit", list.Flags[1].Flag)
	assert.Equal(t, TypeInteger, list.Flags[1].Type)
	assert.Equal(t, "name", list.Flags[2].Flag)
}

func TestArrayParamCarriesItemType(t *testing.T) {
	m := buildModel(t, crmDoc)
	list, err := m.Lookup("items", "list")
	require.NoError(t, err)

	require.Len(t, list.Flags, 1)
	tag := list.Flags[0]
	assert.Equal(t, TypeArray, tag.Type)
	assert.Equal(t, TypeString, tag.ItemType)
}

func TestPositionalsMatchTemplate(t *testing.T) {
	m := buildModel(t, crmDoc)
	get, err := m.Lookup("users", "get")
	require.NoError(t, err)

	require.Len(t, get.Positionals, 1)
	assert.Equal(t, "id", get.Positionals[0].Name)
	assert.Equal(t, TypeString, get.Positionals[0].Type)
	assert.True(t, get.Positionals[0].Required)
	assert.Equal(t, []string{"id"}, get.RawPathArgs)
}

func TestBodyFlagsFromNestedSchema(t *testing.T) {
	m := buildModel(t, crmDoc)
	create, err := m.Lookup("contacts", "create")
	require.NoError(t, err)

	require.Equal(t, "application/json", create.ContentType)
	flags := []string{}
	for _, f := range create.BodyFlags {
		flags = append(flags, f.Flag)
	}
	assert.Equal(t, []string{"address.city", "address.street", "name"}, flags)

	byName := map[string]BodyFlag{}
	for _, f := range create.BodyFlags {
		byName[f.Flag] = f
	}
	assert.True(t, byName["name"].Required)
	assert.False(t, byName["address.city"].Required, "optional parent breaks the required chain")
	assert.Equal(t, []string{"address", "city"}, byName["address.city"].Path)
}

func TestBodyFlagSkipsOperationFlagCollisions(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "paths": {
	    "/widgets": {
	      "post": {
	        "parameters": [
	          {"name": "name", "in": "query", "schema": {"type": "string"}}
	        ],
	        "requestBody": {
	          "content": {
	            "application/json": {
	              "schema": {
	                "type": "object",
	                "properties": {
	                  "name": {"type": "string"},
	                  "curl": {"type": "string"},
	                  "color": {"type": "string"}
	                }
	              }
	            }
	          }
	        },
	        "responses": {"200": {"description": "ok"}}
	      }
	    }
	  }
	}`
	m := buildModel(t, doc)
	create, err := m.Lookup("widgets", "create")
	require.NoError(t, err)

	flags := []string{}
	for _, f := range create.BodyFlags {
		flags = append(flags, f.Flag)
	}
	assert.Equal(t, []string{"color"}, flags, "name collides with the query flag, curl is reserved")
}

func TestNullableTypeSlicePicksUsefulType(t *testing.T) {
	doc := `{
	  "openapi": "3.1.0",
	  "info": {"title": "t", "version": "1"},
	  "paths": {
	    "/things": {
	      "get": {
	        "parameters": [
	          {"name": "q", "in": "query", "schema": {"type": ["string", "null"]}},
	          {"name": "flags", "in": "query", "schema": {"type": ["null"]}}
	        ],
	        "responses": {"200": {"description": "ok"}}
	      }
	    }
	  }
	}`
	m := buildModel(t, doc)
	list, err := m.Lookup("things", "list")
	require.NoError(t, err)

	require.Len(t, list.Flags, 2)
	byName := map[string]Param{}
	for _, f := range list.Flags {
		byName[f.Name] = f
	}
	assert.Equal(t, TypeString, byName["q"].Type)
	assert.Equal(t, TypeUnknown, byName["flags"].Type)
}

func TestDuplicateFlagNamesGetSuffixed(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "paths": {
	    "/things": {
	      "get": {
	        "parameters": [
	          {"name": "pageSize", "in": "query", "schema": {"type": "integer"}},
	          {"name": "page_size", "in": "query", "schema": {"type": "integer"}}
	        ],
	        "responses": {"200": {"description": "ok"}}
	      }
	    }
	  }
	}`
	m := buildModel(t, doc)
	list, err := m.Lookup("things", "list")
	require.NoError(t, err)

	require.Len(t, list.Flags, 2)
	got := map[string]bool{}
	for _, f := range list.Flags {
		got[f.Flag] = true
	}
	assert.True(t, got["page-size"])
	assert.True(t, got["page-size-2"])
}

func TestValidationSchemasPerLocation(t *testing.T) {
	m := buildModel(t, crmDoc)
	list, err := m.Lookup("contacts", "list")
	require.NoError(t, err)

	require.NotNil(t, list.Validation.Query)
	assert.Contains(t, list.Validation.Query.Properties, "limit")
	assert.Contains(t, list.Validation.Query.Properties, "name")
	require.NotNil(t, list.Validation.Header)
	assert.Contains(t, list.Validation.Header.Properties, "X-Request-Id")
	assert.Nil(t, list.Validation.Cookie)
}

func TestAuthCarriedPerOperation(t *testing.T) {
	m := buildModel(t, crmDoc)

	get, err := m.Lookup("users", "get")
	require.NoError(t, err)
	require.Len(t, get.Auth, 1)

	list, err := m.Lookup("contacts", "list")
	require.NoError(t, err)
	assert.Empty(t, list.Auth)
}

func TestModelIsDeterministic(t *testing.T) {
	a := buildModel(t, crmDoc)
	b := buildModel(t, crmDoc)

	require.Equal(t, a.SpecID, b.SpecID)
	require.Equal(t, a.Fingerprint, b.Fingerprint)
	require.Equal(t, len(a.Resources), len(b.Resources))
	for i := range a.Resources {
		assert.Equal(t, a.Resources[i].Name, b.Resources[i].Name)
		require.Equal(t, len(a.Resources[i].Actions), len(b.Resources[i].Actions))
		for j := range a.Resources[i].Actions {
			assert.Equal(t, a.Resources[i].Actions[j].ID, b.Resources[i].Actions[j].ID)
		}
	}
}

func TestUnknownResourceErrorMessage(t *testing.T) {
	m := buildModel(t, crmDoc)
	_, err := m.Lookup("nope", "list")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownResource))
	assert.Contains(t, err.Error(), "nope")
}
