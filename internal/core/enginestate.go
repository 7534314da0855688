package core

import (
	"github.com/simwidget/autoflight/internal/storage"
)

// EngineState is the persisted enable flag and cruise altitude. It is saved
// synchronously on every enable/disable transition and reloaded at process
// start so a crash while enabled resumes autonomous control on restart.
type EngineState struct {
	Enabled        bool    `json:"enabled"`
	CruiseAltitude float64 `json:"cruise_altitude"`
}

// StateFile persists EngineState as JSON at a fixed path.
type StateFile struct {
	path string
}

// NewStateFile creates a StateFile at path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Save writes st synchronously.
func (f *StateFile) Save(st EngineState) error {
	return storage.SaveJSON(f.path, st)
}

// Load reads the persisted state. A missing file reports storage.ErrNotFound.
func (f *StateFile) Load() (EngineState, error) {
	var st EngineState
	err := storage.LoadJSON(f.path, &st)
	return st, err
}
