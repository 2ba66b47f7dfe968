package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Profile *profileSchema `toml:"profile,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profile schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	Email        string `toml:"email"`
	Name         string `toml:"name,omitempty"`
	ClientID     string `toml:"client_id"`
	BusinessType string `toml:"business_type"`
	TokenRef     string `toml:"token_ref"`
	LoggedInAt   string `toml:"logged_in_at,omitempty"`
}
