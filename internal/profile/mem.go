package profile

import "sync"

// MemStore is an in-memory WritableStore for tests and programmatic use.
type MemStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	def      string
	tokens   map[string]map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		profiles: map[string]Profile{},
		tokens:   map[string]map[string]string{},
	}
}

func (s *MemStore) Profiles() (map[string]Profile, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Profile, len(s.profiles))
	for name, p := range s.profiles {
		p.Name = name
		out[name] = p
	}
	return out, s.def, nil
}

func (s *MemStore) Profile(name string) (Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name == "" {
		name = s.def
	}
	if name == "" {
		name = DefaultName
	}
	p, ok := s.profiles[name]
	if !ok {
		return Profile{}, false, nil
	}
	p.Name = name
	return p, true, nil
}

func (s *MemStore) Token(specID, profileName string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[specID][profileName]
	return tok, ok && tok != "", nil
}

func (s *MemStore) SetProfile(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.Name] = Profile{Server: p.Server, AuthScheme: p.AuthScheme}
	return nil
}

func (s *MemStore) SetDefaultProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = name
	return nil
}

func (s *MemStore) SetToken(specID, profileName, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[specID] == nil {
		s.tokens[specID] = map[string]string{}
	}
	s.tokens[specID][profileName] = token
	return nil
}

func (s *MemStore) DeleteToken(specID, profileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[specID] != nil {
		delete(s.tokens[specID], profileName)
	}
	return nil
}
