package request

import (
	"encoding/base64"
	"fmt"

	"github.com/oascli/oascli/internal/openapi"
	"github.com/oascli/oascli/internal/profile"
)

// authPieces is what auth application contributes to the request.
type authPieces struct {
	headers []pair
	query   []pair
	cookies []pair
}

// applyAuth selects a scheme (CLI --auth > profile > embedded default >
// operation's single scheme > document's single scheme > opt-in bearer
// fallback) and materializes its credential. Automatic selection only engages
// when the operation declares security; an explicit --auth always wins, and
// an explicit --bearer-token is honored even without a resolvable scheme.
func applyAuth(in Input, prof profile.Profile, profName string) (authPieces, error) {
	schemes := in.Model.Schemes
	requires := len(in.Action.Auth) > 0

	var (
		scheme   openapi.Scheme
		selected bool
	)

	switch {
	case in.Globals.Auth != "":
		s, ok := openapi.SchemeByKey(schemes, in.Globals.Auth)
		if !ok {
			return authPieces{}, fmt.Errorf("unknown auth scheme %q", in.Globals.Auth)
		}
		scheme, selected = s, true

	case requires:
		if s, ok := openapi.SchemeByKey(schemes, prof.AuthScheme); ok && prof.AuthScheme != "" {
			scheme, selected = s, true
			break
		}
		if s, ok := openapi.SchemeByKey(schemes, in.Defaults.Auth); ok && in.Defaults.Auth != "" {
			scheme, selected = s, true
			break
		}
		if len(in.Action.Auth) == 1 && len(in.Action.Auth[0]) == 1 {
			if s, ok := openapi.SchemeByKey(schemes, in.Action.Auth[0][0].Key); ok {
				scheme, selected = s, true
				break
			}
		}
		if len(schemes) == 1 {
			scheme, selected = schemes[0], true
			break
		}
		if in.Globals.AutoAuth {
			if tok, _ := storedToken(in, profName); tok != "" {
				for _, alt := range in.Action.Auth {
					for _, req := range alt {
						if s, ok := openapi.SchemeByKey(schemes, req.Key); ok && s.BearerCompatible() {
							scheme, selected = s, true
							break
						}
					}
					if selected {
						break
					}
				}
			}
		}
	}

	if !selected {
		if in.Globals.BearerToken != "" {
			return authPieces{headers: []pair{{"Authorization", "Bearer " + in.Globals.BearerToken}}}, nil
		}
		return authPieces{}, nil
	}

	switch scheme.Kind {
	case openapi.KindHTTPBearer, openapi.KindOAuth2, openapi.KindOpenID:
		token := in.Globals.BearerToken
		if token == "" {
			token, _ = storedToken(in, profName)
		}
		if token == "" {
			return authPieces{}, fmt.Errorf("no token for auth scheme %q; pass --bearer-token or run 'login'", scheme.Key)
		}
		return authPieces{headers: []pair{{"Authorization", "Bearer " + token}}}, nil

	case openapi.KindHTTPBasic:
		if in.Globals.Username == "" || in.Globals.Password == "" {
			return authPieces{}, fmt.Errorf("auth scheme %q needs --username and --password", scheme.Key)
		}
		cred := base64.StdEncoding.EncodeToString([]byte(in.Globals.Username + ":" + in.Globals.Password))
		return authPieces{headers: []pair{{"Authorization", "Basic " + cred}}}, nil

	case openapi.KindAPIKey:
		key := in.Globals.APIKey
		if key == "" {
			key, _ = storedToken(in, profName)
		}
		if key == "" {
			return authPieces{}, fmt.Errorf("no key for auth scheme %q; pass --api-key or run 'login'", scheme.Key)
		}
		if scheme.Name == "" {
			return authPieces{}, fmt.Errorf("auth scheme %q declares no parameter name", scheme.Key)
		}
		switch scheme.In {
		case "header":
			return authPieces{headers: []pair{{scheme.Name, key}}}, nil
		case "query":
			return authPieces{query: []pair{{scheme.Name, key}}}, nil
		case "cookie":
			return authPieces{cookies: []pair{{scheme.Name, key}}}, nil
		}
		return authPieces{}, fmt.Errorf("auth scheme %q has unsupported location %q", scheme.Key, scheme.In)

	default:
		return authPieces{}, fmt.Errorf("auth scheme %q has unsupported type", scheme.Key)
	}
}

func storedToken(in Input, profName string) (string, error) {
	if in.Store == nil {
		return "", nil
	}
	tok, ok, err := in.Store.Token(in.Model.SpecID, profName)
	if err != nil || !ok {
		return "", err
	}
	return tok, nil
}
