package openapi

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oascli/oascli/internal/naming"
)

// SchemeKind classifies a security scheme.
type SchemeKind string

const (
	KindHTTPBearer SchemeKind = "http-bearer"
	KindHTTPBasic  SchemeKind = "http-basic"
	KindAPIKey     SchemeKind = "api-key"
	KindOAuth2     SchemeKind = "oauth2"
	KindOpenID     SchemeKind = "openIdConnect"
	KindUnknown    SchemeKind = "unknown"
)

// Scheme is a parsed components.securitySchemes entry.
type Scheme struct {
	Key              string
	Kind             SchemeKind
	Name             string // api-key parameter name
	In               string // api-key location: header, query, cookie
	HTTPScheme       string
	BearerFormat     string
	Description      string
	Flows            []OAuthFlow
	OpenIDConnectURL string
}

// OAuthFlow is one oauth2 flow with sorted scope names.
type OAuthFlow struct {
	Kind             string
	AuthorizationURL string
	TokenURL         string
	RefreshURL       string
	Scopes           []string
}

// BearerCompatible reports whether the scheme is satisfied by a bearer token.
func (s Scheme) BearerCompatible() bool {
	switch s.Kind {
	case KindHTTPBearer, KindOAuth2, KindOpenID:
		return true
	}
	return false
}

// Requirement is one scheme reference inside a security alternative.
type Requirement struct {
	Key    string
	Scopes []string
}

// Alternative is a set of requirements that must all be satisfied; any one
// alternative authorizes the operation.
type Alternative []Requirement

// CollectSchemes parses and classifies every security scheme, sorted by
// kebab-cased key.
func CollectSchemes(doc *openapi3.T) []Scheme {
	if doc == nil || doc.Components == nil || len(doc.Components.SecuritySchemes) == 0 {
		return nil
	}
	out := make([]Scheme, 0, len(doc.Components.SecuritySchemes))
	for key, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		out = append(out, classifyScheme(key, ref.Value))
	}
	sort.Slice(out, func(i, j int) bool {
		return naming.Kebab(out[i].Key) < naming.Kebab(out[j].Key)
	})
	return out
}

// SchemeByKey finds a scheme by its exact key.
func SchemeByKey(schemes []Scheme, key string) (Scheme, bool) {
	for _, s := range schemes {
		if s.Key == key {
			return s, true
		}
	}
	return Scheme{}, false
}

func classifyScheme(key string, s *openapi3.SecurityScheme) Scheme {
	sc := Scheme{Key: key, Kind: KindUnknown, Description: s.Description}
	switch strings.ToLower(s.Type) {
	case "http":
		sc.HTTPScheme = strings.ToLower(s.Scheme)
		switch sc.HTTPScheme {
		case "bearer":
			sc.Kind = KindHTTPBearer
			sc.BearerFormat = s.BearerFormat
		case "basic":
			sc.Kind = KindHTTPBasic
		}
	case "apikey":
		sc.Name = s.Name
		sc.In = strings.ToLower(s.In)
		switch sc.In {
		case "header", "query", "cookie":
			sc.Kind = KindAPIKey
		}
	case "oauth2":
		sc.Kind = KindOAuth2
		sc.Flows = collectFlows(s.Flows)
	case "openidconnect":
		sc.Kind = KindOpenID
		sc.OpenIDConnectURL = s.OpenIdConnectUrl
	}
	return sc
}

func collectFlows(f *openapi3.OAuthFlows) []OAuthFlow {
	if f == nil {
		return nil
	}
	var out []OAuthFlow
	add := func(kind string, fl *openapi3.OAuthFlow) {
		if fl == nil {
			return
		}
		scopes := make([]string, 0, len(fl.Scopes))
		for name := range fl.Scopes {
			scopes = append(scopes, name)
		}
		sort.Strings(scopes)
		out = append(out, OAuthFlow{
			Kind:             kind,
			AuthorizationURL: fl.AuthorizationURL,
			TokenURL:         fl.TokenURL,
			RefreshURL:       fl.RefreshURL,
			Scopes:           scopes,
		})
	}
	add("authorizationCode", f.AuthorizationCode)
	add("clientCredentials", f.ClientCredentials)
	add("implicit", f.Implicit)
	add("password", f.Password)
	return out
}

// securityFor resolves the effective security of one operation: the
// operation's own requirements override the document's, and an explicit empty
// list disables auth.
func securityFor(doc *openapi3.T, op *openapi3.Operation) []Alternative {
	var reqs openapi3.SecurityRequirements
	if op.Security != nil {
		reqs = *op.Security
	} else if doc != nil {
		reqs = doc.Security
	}
	out := make([]Alternative, 0, len(reqs))
	for _, r := range reqs {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		alt := make(Alternative, 0, len(keys))
		for _, k := range keys {
			alt = append(alt, Requirement{Key: k, Scopes: append([]string(nil), r[k]...)})
		}
		out = append(out, alt)
	}
	return out
}
