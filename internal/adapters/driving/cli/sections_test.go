package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSectionsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sections.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSections_ParsesRecords(t *testing.T) {
	path := writeSectionsFile(t, `[
		{"sectionId": "sec-1", "sectionPath": "1. Intro", "text": "", "hasExistingContent": false},
		{"sectionId": "sec-2", "sectionPath": "2. Design", "text": "existing", "hasExistingContent": true}
	]`)

	sections, err := loadSections(path)
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "sec-1", sections[0].SectionID)
	assert.Equal(t, "1. Intro", sections[0].SectionPath)
	assert.False(t, sections[0].HasExistingContent)

	assert.Equal(t, "existing", sections[1].Text)
	assert.True(t, sections[1].HasExistingContent)
}

func TestLoadSections_EmptyArray(t *testing.T) {
	path := writeSectionsFile(t, `[]`)

	sections, err := loadSections(path)
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestLoadSections_MissingFile(t *testing.T) {
	_, err := loadSections(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadSections_MalformedJSON(t *testing.T) {
	path := writeSectionsFile(t, `{not json`)

	_, err := loadSections(path)
	assert.Error(t, err)
}
