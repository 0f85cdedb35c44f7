package batch

import (
	"encoding/json"
	"os"

	"bike-viewer/internal/catalog"
)

// ManifestEntry represents one snapshot in the output manifest.
type ManifestEntry struct {
	ID          catalog.ModelID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Asset       string          `json:"asset"`
	Image       string          `json:"image"`
}

// WriteManifest writes the successful results to path as JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			ID:          r.Model.ID,
			Name:        r.Model.Name,
			Description: r.Model.Description,
			Asset:       r.Model.AssetPath,
			Image:       r.Image,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
