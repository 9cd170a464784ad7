package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkwell-labs/docfill-engine/internal/core/domain"
)

// sectionRecordJSON is the on-disk shape of one parsed section, as
// produced by the upstream document parsing layer.
type sectionRecordJSON struct {
	SectionID          string `json:"sectionId"`
	SectionPath        string `json:"sectionPath"`
	Text               string `json:"text"`
	HasExistingContent bool   `json:"hasExistingContent"`
}

// loadSections reads a JSON array of section records from a file.
func loadSections(path string) ([]domain.SectionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sections file: %w", err)
	}

	var records []sectionRecordJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing sections file: %w", err)
	}

	sections := make([]domain.SectionRecord, len(records))
	for i, r := range records {
		sections[i] = domain.SectionRecord{
			SectionID:          r.SectionID,
			SectionPath:        r.SectionPath,
			Text:               r.Text,
			HasExistingContent: r.HasExistingContent,
		}
	}
	return sections, nil
}
