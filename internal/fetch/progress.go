package fetch

import (
	"encoding/json"
	"os"

	"gold-data/internal/saver"
)

// loadProgress reads the last persisted bar per instrument from a previous
// run. A missing or unreadable file yields an empty map.
func loadProgress(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func writeProgress(path string, m map[string]string) error {
	return saver.WriteJSON(path, m)
}
