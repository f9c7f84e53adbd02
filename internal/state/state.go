package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jasonb194/MAMManager/internal/model"
)

// LoadState reads the automation state from a JSON file. Returns a zero
// state if the file doesn't exist.
func LoadState(filePath string) (*model.AutomationState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.AutomationState{}, nil
		}
		return nil, err
	}
	var st model.AutomationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SaveState writes the automation state to a JSON file, creating parent
// directories as needed.
func SaveState(filePath string, st *model.AutomationState) error {
	st.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0600)
}
