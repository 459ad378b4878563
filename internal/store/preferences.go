package store

import "strings"

// MaxPreferred bounds the remembered candidates per tool.
const MaxPreferred = 5

// Preferences maps a tool name to the candidates that worked, most recent first.
type Preferences map[string][]string

// PushMRU puts item at the front of list, deduplicated and capped at max.
func PushMRU(list []string, item string, max int) []string {
	item = strings.TrimSpace(item)
	out := make([]string, 0, len(list)+1)
	if item != "" {
		out = append(out, item)
	}
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || s == item || contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// PreferenceStore reads and writes command_preferences.json.
type PreferenceStore struct {
	Path string
}

// Get returns the remembered candidates for tool, most recent first.
func (s PreferenceStore) Get(tool string) ([]string, error) {
	prefs, err := Load[Preferences](s.Path)
	if err != nil {
		return nil, err
	}
	return PushMRU(prefs[tool], "", MaxPreferred), nil
}

// All returns the whole preference map.
func (s PreferenceStore) All() (Preferences, error) {
	prefs, err := Load[Preferences](s.Path)
	if prefs == nil {
		prefs = Preferences{}
	}
	return prefs, err
}

// Remember records candidate as the most recent success for tool.
// The file is not rewritten when the candidate is already first.
func (s PreferenceStore) Remember(tool, candidate string) error {
	cur, err := s.Get(tool)
	if err == nil && len(cur) > 0 && cur[0] == candidate {
		return nil
	}
	return Update(s.Path, func(p *Preferences) error {
		if *p == nil {
			*p = Preferences{}
		}
		(*p)[tool] = PushMRU((*p)[tool], candidate, MaxPreferred)
		return nil
	})
}

// Forget drops every remembered candidate for tool.
func (s PreferenceStore) Forget(tool string) error {
	return Update(s.Path, func(p *Preferences) error {
		delete(*p, tool)
		return nil
	})
}
