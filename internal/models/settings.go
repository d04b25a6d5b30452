package models

// ChapterVisibility maps every chapter to whether it counts toward the final grade.
type ChapterVisibility map[ChapterKey]bool

// DefaultChapterVisibility shows all five chapters.
func DefaultChapterVisibility() ChapterVisibility {
	v := make(ChapterVisibility, len(ChapterKeys))
	for _, key := range ChapterKeys {
		v[key] = true
	}
	return v
}

// Normalize returns a map with exactly the five chapter keys. Missing keys take the value
// from fallback; unknown keys are dropped.
func (v ChapterVisibility) Normalize(fallback ChapterVisibility) ChapterVisibility {
	out := make(ChapterVisibility, len(ChapterKeys))
	for _, key := range ChapterKeys {
		if visible, ok := v[key]; ok {
			out[key] = visible
			continue
		}
		if visible, ok := fallback[key]; ok {
			out[key] = visible
			continue
		}
		out[key] = true
	}
	return out
}

// Visible reports whether the chapter is shown.
func (v ChapterVisibility) Visible(key ChapterKey) bool {
	return v[key]
}

// Settings holds school-wide preferences.
type Settings struct {
	SchoolName        string            `json:"school_name"`
	AcademicYear      string            `json:"academic_year"`
	DefaultSubject    string            `json:"default_subject"`
	ChapterVisibility ChapterVisibility `json:"chapter_visibility"`
}

// DefaultSettings is used when the dataset carries no settings.
func DefaultSettings() Settings {
	return Settings{
		SchoolName:        "School",
		DefaultSubject:    "General",
		ChapterVisibility: DefaultChapterVisibility(),
	}
}

// ChapterConfigs maps subject names to their visibility override.
type ChapterConfigs map[string]ChapterVisibility

// VisibilityFor resolves the subject's visibility, falling back to the global default.
func (s Settings) VisibilityFor(configs ChapterConfigs, subject string) ChapterVisibility {
	global := s.ChapterVisibility.Normalize(DefaultChapterVisibility())
	if override, ok := configs[subject]; ok && override != nil {
		return override.Normalize(global)
	}
	return global
}
