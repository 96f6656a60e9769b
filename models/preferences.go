package models

import "fmt"

// UserSettings are the display preferences embedded in every user
type UserSettings struct {
	Language      string `json:"language"`
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	SoundEffects  bool   `json:"soundEffects"`
	FontSize      string `json:"fontSize"`
}

// UserSettingsRequest for partial settings updates
type UserSettingsRequest struct {
	Language      *string `json:"language,omitempty"`
	Theme         *string `json:"theme,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
	SoundEffects  *bool   `json:"soundEffects,omitempty"`
	FontSize      *string `json:"fontSize,omitempty"`
}

var (
	validLanguages = []string{"ar", "it", "both"}
	validThemes    = []string{"light", "dark"}
	validFontSizes = []string{"small", "medium", "large"}
)

func DefaultSettings() UserSettings {
	return UserSettings{
		Language:      "both",
		Theme:         "light",
		Notifications: true,
		SoundEffects:  true,
		FontSize:      "medium",
	}
}

func oneOf(field, value string, valid []string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %s (must be one of %v)", field, value, valid)
}

func (r *UserSettingsRequest) Validate() error {
	if r.Language != nil {
		if err := oneOf("language", *r.Language, validLanguages); err != nil {
			return err
		}
	}
	if r.Theme != nil {
		if err := oneOf("theme", *r.Theme, validThemes); err != nil {
			return err
		}
	}
	if r.FontSize != nil {
		if err := oneOf("fontSize", *r.FontSize, validFontSizes); err != nil {
			return err
		}
	}
	return nil
}

// Apply merges the non-nil fields of r into s.
func (s *UserSettings) Apply(r UserSettingsRequest) {
	if r.Language != nil {
		s.Language = *r.Language
	}
	if r.Theme != nil {
		s.Theme = *r.Theme
	}
	if r.Notifications != nil {
		s.Notifications = *r.Notifications
	}
	if r.SoundEffects != nil {
		s.SoundEffects = *r.SoundEffects
	}
	if r.FontSize != nil {
		s.FontSize = *r.FontSize
	}
}
