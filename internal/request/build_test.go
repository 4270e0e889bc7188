package request

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oascli/oascli/internal/command"
	"github.com/oascli/oascli/internal/profile"
	"github.com/oascli/oascli/internal/spec"
)

const apiDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Petstore Plus", "version": "2.0.0"},
  "servers": [
    {"url": "https://api.example.com"},
    {"url": "https://{region}.api.example.com", "variables": {"region": {"default": "us"}}}
  ],
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer"},
      "basicAuth": {"type": "http", "scheme": "basic"},
      "keyHeader": {"type": "apiKey", "in": "header", "name": "X-API-Key"},
      "keyQuery": {"type": "apiKey", "in": "query", "name": "api_key"},
      "keyCookie": {"type": "apiKey", "in": "cookie", "name": "session"}
    }
  },
  "paths": {
    "/contacts": {
      "get": {
        "tags": ["contacts"],
        "parameters": [
          {"name": "limit", "in": "query", "schema": {"type": "integer"}},
          {"name": "name", "in": "query", "schema": {"type": "string"}}
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
    "/users/{id}": {
      "get": {
        "tags": ["users"],
        "security": [{"bearerAuth": []}],
        "responses": {"200": {"description": "ok"}}
      }
    },
    "/a/{x}/b/{y}": {
      "get": {"tags": ["segments"], "responses": {"200": {"description": "ok"}}}
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
    "/reports": {
      "get": {
        "tags": ["reports"],
        "parameters": [
          {"name": "org", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "X-Trace", "in": "header", "schema": {"type": "array", "items": {"type": "string"}}},
          {"name": "c1", "in": "cookie", "schema": {"type": "string"}},
          {"name": "c2", "in": "cookie", "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func modelFor(t *testing.T, doc string) *command.Model {
	t.Helper()
	d, err := spec.Load(context.Background(), spec.Input{Embedded: doc})
	require.NoError(t, err)
	m, err := command.Build(d)
	require.NoError(t, err)
	return m
}

func actionFor(t *testing.T, m *command.Model, resource, action string) *command.Action {
	t.Helper()
	a, err := m.Lookup(resource, action)
	require.NoError(t, err)
	return a
}

func mustBuild(t *testing.T, in Input) *Prepared {
	t.Helper()
	p, issues, err := Build(in)
	require.NoError(t, err)
	require.Empty(t, issues)
	require.NotNil(t, p)
	return p
}

func TestQueryOrderFollowsDeclaration(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "list"),
		Flags:  map[string]any{"limit": int64(10), "name": "andrew"},
	})
	assert.Equal(t, "GET", p.Method)
	assert.Equal(t, "https://api.example.com/contacts?limit=10&name=andrew", p.URL)
}

func TestPathPositionalSubstitution(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:       m,
		Action:      actionFor(t, m, "users", "get"),
		Positionals: []string{"123"},
		Globals:     Globals{BearerToken: "tok-123456"},
	})
	assert.Equal(t, "https://api.example.com/users/123", p.URL)
}

func TestPathValuesAreEscaped(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:       m,
		Action:      actionFor(t, m, "segments", "get"),
		Positionals: []string{"1/2", "é"},
	})
	assert.Equal(t, "https://api.example.com/a/1%2F2/b/%C3%A9", p.URL)
}

func TestMissingPositionalIsAnIssue(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, issues, err := Build(Input{
		Model:       m,
		Action:      actionFor(t, m, "segments", "get"),
		Positionals: []string{"only-one"},
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "y", issues[0].Path)
	assert.Equal(t, "missing required positional", issues[0].Message)
}

func TestArrayQueryRepeatsKey(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "items", "list"),
		Flags:  map[string]any{"tag": []string{"a", "b"}},
	})
	assert.Equal(t, "https://api.example.com/items?tag=a&tag=b", p.URL)
}

func TestHeaderAndCookiePlacement(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "reports", "list"),
		Flags: map[string]any{
			"org":    "acme",
			"xTrace": []string{"t1", "t2"},
			"c1":     "v1",
			"c2":     "v2",
		},
	})
	assert.Equal(t, "https://api.example.com/reports?org=acme", p.URL)
	trace, ok := p.Headers.Get("X-Trace")
	require.True(t, ok)
	assert.Equal(t, "t1,t2", trace)
	cookie, ok := p.Headers.Get("Cookie")
	require.True(t, ok)
	assert.Equal(t, "c1=v1; c2=v2", cookie)
}

func TestRequiredQueryParamEnforced(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, issues, err := Build(Input{
		Model:  m,
		Action: actionFor(t, m, "reports", "list"),
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "org", issues[0].Path)
	assert.Equal(t, "missing required property 'org'", issues[0].Message)
}

func TestBodyFromDotNotation(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "create"),
		Flags: map[string]any{
			"name":           "Ada",
			"address.street": "123 Main",
			"address.city":   "NYC",
		},
	})
	ct, ok := p.Headers.Get("Content-Type")
	require.True(t, ok)
	assert.Equal(t, "application/json", ct)
	assert.JSONEq(t, `{"name":"Ada","address":{"street":"123 Main","city":"NYC"}}`, string(p.Body))
}

func TestMissingRequiredBodyField(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, issues, err := Build(Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "create"),
		Flags:  map[string]any{"address.city": "NYC"},
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "name", issues[0].Path)
	assert.Equal(t, "missing required property 'name'", issues[0].Message)
}

func TestNoBodyFlagsListsRequiredAsFlags(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, issues, err := Build(Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "create"),
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "--name", issues[0].Path)
}

func TestBodyLeafCoercion(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "servers": [{"url": "https://x.test"}],
	  "paths": {
	    "/widgets": {
	      "post": {
	        "requestBody": {
	          "content": {
	            "application/json": {
	              "schema": {
	                "type": "object",
	                "properties": {
	                  "count": {"type": "integer"},
	                  "price": {"type": "number"},
	                  "active": {"type": "boolean"}
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
	m := modelFor(t, doc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "widgets", "create"),
		Flags:  map[string]any{"count": "42", "price": "9.5", "active": true},
	})
	assert.JSONEq(t, `{"count":42,"price":9.5,"active":true}`, string(p.Body))

	_, issues, err := Build(Input{
		Model:  m,
		Action: actionFor(t, m, "widgets", "create"),
		Flags:  map[string]any{"count": "nope"},
	})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "count", issues[0].Path)
	assert.Equal(t, "expected an integer", issues[0].Message)
}

func TestServerVariableResolution(t *testing.T) {
	m := modelFor(t, apiDoc)
	list := actionFor(t, m, "contacts", "list")

	p := mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Server: "https://{region}.api.example.com", ServerVars: []string{"region=eu"}},
	})
	assert.Equal(t, "https://eu.api.example.com/contacts", p.URL)

	// The document default fills the gap when the CLI stays silent.
	p = mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Server: "https://{region}.api.example.com"},
	})
	assert.Equal(t, "https://us.api.example.com/contacts", p.URL)
}

func TestUnresolvedServerVariableFails(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, _, err := Build(Input{
		Model:   m,
		Action:  actionFor(t, m, "contacts", "list"),
		Globals: Globals{Server: "https://{zone}.api.example.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unresolved server variable "zone"`)
}

func TestMalformedInputPairs(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, issues, err := Build(Input{
		Model:   m,
		Action:  actionFor(t, m, "contacts", "list"),
		Globals: Globals{ServerVars: []string{"novalue"}, Headers: []string{"NoColon"}},
	})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "--server-var", issues[0].Path)
	assert.Equal(t, "--header", issues[1].Path)
}

func TestExtraHeadersApplied(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:   m,
		Action:  actionFor(t, m, "contacts", "list"),
		Globals: Globals{Headers: []string{"X-Env: staging"}},
	})
	v, ok := p.Headers.Get("x-env")
	require.True(t, ok)
	assert.Equal(t, "staging", v)
}

func TestBearerAuthAndCurlMasking(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:       m,
		Action:      actionFor(t, m, "users", "get"),
		Positionals: []string{"123"},
		Globals:     Globals{BearerToken: "abc123xyz"},
	})
	auth, ok := p.Headers.Get("Authorization")
	require.True(t, ok)
	assert.Equal(t, "Bearer abc123xyz", auth)
	assert.Contains(t, p.Curl, "Authorization: Bearer abc...xyz")
	assert.NotContains(t, p.Curl, "abc123xyz")
}

func TestAuthSchemeSelectionExplicit(t *testing.T) {
	m := modelFor(t, apiDoc)
	list := actionFor(t, m, "contacts", "list")

	p := mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Auth: "keyHeader", APIKey: "k-123"},
	})
	v, ok := p.Headers.Get("X-API-Key")
	require.True(t, ok)
	assert.Equal(t, "k-123", v)

	p = mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Auth: "keyQuery", APIKey: "k-123"},
	})
	assert.Equal(t, "https://api.example.com/contacts?api_key=k-123", p.URL)

	p = mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Auth: "keyCookie", APIKey: "k-123"},
	})
	cookie, ok := p.Headers.Get("Cookie")
	require.True(t, ok)
	assert.Equal(t, "session=k-123", cookie)

	p = mustBuild(t, Input{
		Model:   m,
		Action:  list,
		Globals: Globals{Auth: "basicAuth", Username: "u", Password: "p"},
	})
	auth, _ := p.Headers.Get("Authorization")
	assert.Equal(t, "Basic dTpw", auth)
}

func TestUnknownAuthScheme(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, _, err := Build(Input{
		Model:   m,
		Action:  actionFor(t, m, "contacts", "list"),
		Globals: Globals{Auth: "nope"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown auth scheme "nope"`)
}

func TestMissingTokenForRequiredAuth(t *testing.T) {
	m := modelFor(t, apiDoc)
	_, _, err := Build(Input{
		Model:       m,
		Action:      actionFor(t, m, "users", "get"),
		Positionals: []string{"123"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no token for auth scheme "bearerAuth"`)
}

func TestStoredTokenViaProfile(t *testing.T) {
	m := modelFor(t, apiDoc)
	store := profile.NewMemStore()
	require.NoError(t, store.SetProfile(profile.Profile{Name: "default"}))
	require.NoError(t, store.SetToken(m.SpecID, "default", "stored-token-1"))

	p := mustBuild(t, Input{
		Model:       m,
		Action:      actionFor(t, m, "users", "get"),
		Positionals: []string{"123"},
		Store:       store,
	})
	auth, _ := p.Headers.Get("Authorization")
	assert.Equal(t, "Bearer stored-token-1", auth)
}

func TestProfileServerWins(t *testing.T) {
	m := modelFor(t, apiDoc)
	store := profile.NewMemStore()
	require.NoError(t, store.SetProfile(profile.Profile{Name: "stage", Server: "https://stage.example.com/"}))

	p := mustBuild(t, Input{
		Model:       m,
		Action:      actionFor(t, m, "contacts", "list"),
		Store:       store,
		ProfileName: "stage",
	})
	assert.Equal(t, "https://stage.example.com/contacts", p.URL)
}

func TestEmbeddedDefaultsFillGaps(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "list"),
		Defaults: Defaults{
			Server:     "https://{region}.api.example.com",
			ServerVars: map[string]string{"region": "apac"},
		},
	})
	assert.Equal(t, "https://apac.api.example.com/contacts", p.URL)
}

func TestExplicitSecurityDisabledSkipsAuth(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "servers": [{"url": "https://x.test"}],
	  "security": [{"bearerAuth": []}],
	  "components": {"securitySchemes": {"bearerAuth": {"type": "http", "scheme": "bearer"}}},
	  "paths": {
	    "/open": {
	      "get": {"security": [], "responses": {"200": {"description": "ok"}}}
	    }
	  }
	}`
	m := modelFor(t, doc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "opens", "list"),
	})
	assert.False(t, p.Headers.Has("Authorization"))
}

func TestAutoAuthFallback(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "Multi", "version": "1"},
	  "servers": [{"url": "https://x.test"}],
	  "components": {
	    "securitySchemes": {
	      "basicAuth": {"type": "http", "scheme": "basic"},
	      "oauth": {"type": "oauth2", "flows": {"clientCredentials": {"tokenUrl": "https://x.test/token", "scopes": {}}}}
	    }
	  },
	  "paths": {
	    "/things": {
	      "get": {
	        "security": [{"basicAuth": []}, {"oauth": []}],
	        "responses": {"200": {"description": "ok"}}
	      }
	    }
	  }
	}`
	m := modelFor(t, doc)
	store := profile.NewMemStore()
	require.NoError(t, store.SetToken(m.SpecID, "default", "tok-987654"))

	// Two alternatives and no explicit choice: without --auto-auth this is an
	// unauthenticated request builder error surface, with it the stored token
	// rides the first bearer-compatible alternative.
	p := mustBuild(t, Input{
		Model:   m,
		Action:  actionFor(t, m, "things", "list"),
		Store:   store,
		Globals: Globals{AutoAuth: true},
	})
	auth, _ := p.Headers.Get("Authorization")
	assert.Equal(t, "Bearer tok-987654", auth)

	p = mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "things", "list"),
		Store:  store,
	})
	assert.False(t, p.Headers.Has("Authorization"))
}

func TestRequiredEmptyBodySendsBraces(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "servers": [{"url": "https://x.test"}],
	  "paths": {
	    "/pings": {
	      "post": {
	        "requestBody": {
	          "required": true,
	          "content": {"application/json": {"schema": {"type": "object"}}}
	        },
	        "responses": {"200": {"description": "ok"}}
	      }
	    }
	  }
	}`
	m := modelFor(t, doc)
	p := mustBuild(t, Input{Model: m, Action: actionFor(t, m, "pings", "create")})
	assert.Equal(t, "{}", string(p.Body))
	ct, _ := p.Headers.Get("Content-Type")
	assert.Equal(t, "application/json", ct)
}

func TestNoServerAnywhereFails(t *testing.T) {
	doc := `{
	  "openapi": "3.0.3",
	  "info": {"title": "t", "version": "1"},
	  "paths": {"/things": {"get": {"responses": {"200": {"description": "ok"}}}}}
	}`
	m := modelFor(t, doc)
	_, _, err := Build(Input{Model: m, Action: actionFor(t, m, "things", "list")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server URL")
}

func TestCurlRendersMethodHeadersBody(t *testing.T) {
	m := modelFor(t, apiDoc)
	p := mustBuild(t, Input{
		Model:  m,
		Action: actionFor(t, m, "contacts", "create"),
		Flags:  map[string]any{"name": "Ada"},
	})
	assert.Contains(t, p.Curl, "curl -X POST 'https://api.example.com/contacts'")
	assert.Contains(t, p.Curl, "-H 'Content-Type: application/json'")
	assert.Contains(t, p.Curl, `-d '{"name":"Ada"}'`)
}
