package models

import "time"

// Dataset is the full application data exchanged with the remote store.
type Dataset struct {
	Students       []Student           `json:"students"`
	Teachers       []Teacher           `json:"teachers"`
	History        []AssessmentSession `json:"history"`
	Settings       Settings            `json:"settings"`
	ChapterConfigs ChapterConfigs      `json:"chapter_configs"`
}

// Normalize repairs collections and settings left empty by the source.
func (d *Dataset) Normalize() {
	if d.Students == nil {
		d.Students = []Student{}
	}
	for i := range d.Students {
		d.Students[i].Normalize()
	}
	if d.Teachers == nil {
		d.Teachers = []Teacher{}
	}
	if d.History == nil {
		d.History = []AssessmentSession{}
	}
	if d.Settings.DefaultSubject == "" {
		d.Settings.DefaultSubject = DefaultSettings().DefaultSubject
	}
	d.Settings.ChapterVisibility = d.Settings.ChapterVisibility.Normalize(DefaultChapterVisibility())
	if d.ChapterConfigs == nil {
		d.ChapterConfigs = ChapterConfigs{}
	}
	for subject, visibility := range d.ChapterConfigs {
		d.ChapterConfigs[subject] = visibility.Normalize(d.Settings.ChapterVisibility)
	}
}

// DataSource tells where the current dataset came from.
type DataSource string

const (
	DataSourceRemote DataSource = "remote"
	DataSourceSample DataSource = "sample"
)

// LoadStatus describes the last initial load.
type LoadStatus struct {
	Source   DataSource `json:"source"`
	LoadedAt time.Time  `json:"loaded_at"`
	Error    string     `json:"error,omitempty"`
}

// BootstrapView is the dataset as seen by one viewer, plus load metadata.
type BootstrapView struct {
	Viewer         Viewer              `json:"viewer"`
	Students       []Student           `json:"students"`
	Teachers       []Teacher           `json:"teachers,omitempty"`
	History        []AssessmentSession `json:"history"`
	Settings       Settings            `json:"settings"`
	ChapterConfigs ChapterConfigs      `json:"chapter_configs"`
	Status         LoadStatus          `json:"status"`
	SyncPolicy     SyncPolicy          `json:"sync_policy"`
}
