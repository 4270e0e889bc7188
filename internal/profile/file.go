package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// fileLayout is the on-disk JSON shape. Tokens are nested specID -> profile.
type fileLayout struct {
	Profiles       map[string]Profile           `json:"profiles,omitempty"`
	DefaultProfile string                       `json:"defaultProfile,omitempty"`
	Tokens         map[string]map[string]string `json:"tokens,omitempty"`
}

// FileStore persists profiles and tokens as a single JSON file, created with
// 0600 permissions since it carries credentials.
type FileStore struct {
	path string
}

// DefaultPath returns the store location: $OASCLI_CONFIG_DIR/profiles.json
// when the variable is set, else <user config dir>/oascli/profiles.json.
func DefaultPath() (string, error) {
	if dir := os.Getenv("OASCLI_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "profiles.json"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "oascli", "profiles.json"), nil
}

// NewFileStore opens (or will lazily create) the store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (*fileLayout, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &fileLayout{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile store: %w", err)
	}
	var l fileLayout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse profile store %s: %w", s.path, err)
	}
	return &l, nil
}

func (s *FileStore) save(l *fileLayout) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write profile store: %w", err)
	}
	return nil
}

func (s *FileStore) Profiles() (map[string]Profile, string, error) {
	l, err := s.load()
	if err != nil {
		return nil, "", err
	}
	out := make(map[string]Profile, len(l.Profiles))
	for name, p := range l.Profiles {
		p.Name = name
		out[name] = p
	}
	return out, l.DefaultProfile, nil
}

func (s *FileStore) Profile(name string) (Profile, bool, error) {
	l, err := s.load()
	if err != nil {
		return Profile{}, false, err
	}
	if name == "" {
		name = l.DefaultProfile
	}
	if name == "" {
		name = DefaultName
	}
	p, ok := l.Profiles[name]
	if !ok {
		return Profile{}, false, nil
	}
	p.Name = name
	return p, true, nil
}

func (s *FileStore) Token(specID, profileName string) (string, bool, error) {
	l, err := s.load()
	if err != nil {
		return "", false, err
	}
	tok, ok := l.Tokens[specID][profileName]
	return tok, ok && tok != "", nil
}

func (s *FileStore) SetProfile(p Profile) error {
	if p.Name == "" {
		return errors.New("profile name required")
	}
	l, err := s.load()
	if err != nil {
		return err
	}
	if l.Profiles == nil {
		l.Profiles = map[string]Profile{}
	}
	l.Profiles[p.Name] = Profile{Server: p.Server, AuthScheme: p.AuthScheme}
	return s.save(l)
}

func (s *FileStore) SetDefaultProfile(name string) error {
	l, err := s.load()
	if err != nil {
		return err
	}
	l.DefaultProfile = name
	return s.save(l)
}

func (s *FileStore) SetToken(specID, profileName, token string) error {
	if specID == "" || profileName == "" {
		return errors.New("spec id and profile name required")
	}
	l, err := s.load()
	if err != nil {
		return err
	}
	if l.Tokens == nil {
		l.Tokens = map[string]map[string]string{}
	}
	if l.Tokens[specID] == nil {
		l.Tokens[specID] = map[string]string{}
	}
	l.Tokens[specID][profileName] = token
	return s.save(l)
}

func (s *FileStore) DeleteToken(specID, profileName string) error {
	l, err := s.load()
	if err != nil {
		return err
	}
	if l.Tokens[specID] == nil {
		return nil
	}
	delete(l.Tokens[specID], profileName)
	if len(l.Tokens[specID]) == 0 {
		delete(l.Tokens, specID)
	}
	return s.save(l)
}
