package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSchemes(t *testing.T) {
	doc := loadDoc(t, `{
  "openapi": "3.0.0",
  "info": {"title": "t", "version": "1"},
  "paths": {},
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
      "basicAuth": {"type": "http", "scheme": "basic"},
      "apiKey": {"type": "apiKey", "in": "header", "name": "X-Api-Key"},
      "oauth": {
        "type": "oauth2",
        "flows": {
          "authorizationCode": {
            "authorizationUrl": "https://ex.com/auth",
            "tokenUrl": "https://ex.com/token",
            "scopes": {"write": "w", "read": "r"}
          }
        }
      },
      "oidc": {"type": "openIdConnect", "openIdConnectUrl": "https://ex.com/.well-known"},
      "mystery": {"type": "mutualTLS"}
    }
  }
}`)
	schemes := CollectSchemes(doc)
	require.Len(t, schemes, 6)

	// Sorted by kebab-cased key.
	keys := make([]string, 0, len(schemes))
	for _, s := range schemes {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"apiKey", "basicAuth", "bearerAuth", "mystery", "oauth", "oidc"}, keys)

	byKey := map[string]Scheme{}
	for _, s := range schemes {
		byKey[s.Key] = s
	}

	assert.Equal(t, KindHTTPBearer, byKey["bearerAuth"].Kind)
	assert.Equal(t, "JWT", byKey["bearerAuth"].BearerFormat)
	assert.True(t, byKey["bearerAuth"].BearerCompatible())

	assert.Equal(t, KindHTTPBasic, byKey["basicAuth"].Kind)
	assert.False(t, byKey["basicAuth"].BearerCompatible())

	assert.Equal(t, KindAPIKey, byKey["apiKey"].Kind)
	assert.Equal(t, "X-Api-Key", byKey["apiKey"].Name)
	assert.Equal(t, "header", byKey["apiKey"].In)

	oauth := byKey["oauth"]
	assert.Equal(t, KindOAuth2, oauth.Kind)
	require.Len(t, oauth.Flows, 1)
	assert.Equal(t, "authorizationCode", oauth.Flows[0].Kind)
	assert.Equal(t, []string{"read", "write"}, oauth.Flows[0].Scopes)
	assert.True(t, oauth.BearerCompatible())

	assert.Equal(t, KindOpenID, byKey["oidc"].Kind)
	assert.Equal(t, "https://ex.com/.well-known", byKey["oidc"].OpenIDConnectURL)

	assert.Equal(t, KindUnknown, byKey["mystery"].Kind)
}

func TestSchemeByKey(t *testing.T) {
	schemes := []Scheme{{Key: "a"}, {Key: "b"}}
	s, ok := SchemeByKey(schemes, "b")
	assert.True(t, ok)
	assert.Equal(t, "b", s.Key)
	_, ok = SchemeByKey(schemes, "missing")
	assert.False(t, ok)
}
