// Package profile holds named connection profiles (server, auth scheme) and
// the tokens stored per (spec id, profile). The core only ever reads through
// the Store interface; the CLI builtins write through WritableStore.
package profile

// DefaultName is used when neither the caller nor the store names a profile.
const DefaultName = "default"

// Profile is one named configuration.
type Profile struct {
	Name       string `json:"-"`
	Server     string `json:"server,omitempty"`
	AuthScheme string `json:"authScheme,omitempty"`
}

// Store is the read side used during request building.
type Store interface {
	// Profiles returns every profile plus the default profile name ("" when
	// none is set).
	Profiles() (map[string]Profile, string, error)
	// Profile resolves a profile by name; an empty name means the default.
	// ok is false when no such profile exists.
	Profile(name string) (p Profile, ok bool, err error)
	// Token returns the stored token for (specID, profileName).
	Token(specID, profileName string) (token string, ok bool, err error)
}

// WritableStore adds the mutations the login/logout builtins need.
type WritableStore interface {
	Store
	SetProfile(p Profile) error
	SetDefaultProfile(name string) error
	SetToken(specID, profileName, token string) error
	DeleteToken(specID, profileName string) error
}

// ResolveName picks the effective profile name: the explicit name, else the
// store's default, else DefaultName.
func ResolveName(s Store, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if s != nil {
		if _, def, err := s.Profiles(); err == nil && def != "" {
			return def
		}
	}
	return DefaultName
}
