package models

// AppState holds the state of the grid browser
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode
	Loading  bool
	// Status is a transient message shown in the bottom bar
	Status string
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		ViewMode: NormalMode,
	}
}
