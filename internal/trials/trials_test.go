package trials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := Default()

	require.Equal(t, []string{"NCT001", "NCT002"}, catalog.IDs())

	diabetes := catalog.FindByID("NCT001")
	require.NotNil(t, diabetes)
	assert.Equal(t, "Diabetes", diabetes.Condition)
	assert.Equal(t, 18, diabetes.AgeMin)
	assert.Equal(t, 75, diabetes.AgeMax)
	assert.Equal(t, []string{"Toronto", "Montreal"}, diabetes.Locations)
	assert.Equal(t, []string{"Insulin"}, diabetes.ExcludedMedications)

	assert.Nil(t, catalog.FindByID("NCT404"))
}

func TestCatalogTrialsAreCopies(t *testing.T) {
	catalog := Default()

	items := catalog.Trials()
	items[0].Locations[0] = "Paris"
	items[1].Condition = "Asthma"

	fresh := catalog.Trials()
	assert.Equal(t, "Toronto", fresh[0].Locations[0])
	assert.Equal(t, "Hypertension", fresh[1].Condition)
}

func TestParse(t *testing.T) {
	data := []byte(`
trials:
  - trial_id: NCT100
    title: Oncology Basket
    condition: Carcinoma
    phase: Phase 1
    age_min: 21
    age_max: 65
    required_biomarkers:
      HbA1c: {min: 5.5, max: 9}
    excluded_medications: [Warfarin]
    locations: [Boston, "Toronto, ON"]
  - trial_id: NCT101
    condition: Asthma
    age_min: 6
    age_max: 17
    locations: [Ottawa]
`)

	catalog, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	items := catalog.Trials()
	assert.Equal(t, "NCT100", items[0].ID)
	assert.Equal(t, BiomarkerRange{Min: 5.5, Max: 9}, items[0].RequiredBiomarkers["HbA1c"])
	assert.Equal(t, []string{"Boston", "Toronto, ON"}, items[0].Locations)
	assert.Equal(t, "NCT101", items[1].ID)
	assert.Empty(t, items[1].ExcludedMedications)
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	data := []byte(`
trials:
  - trial_id: NCT1
    age_min: 80
    age_max: 18
  - trial_id: NCT1
    required_biomarkers:
      LDL: {min: 4, max: 1}
  - condition: Missing ID
`)

	_, err := Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age_min 80 is greater than age_max 18")
	assert.Contains(t, err.Error(), "duplicate trial_id")
	assert.Contains(t, err.Error(), "biomarker LDL")
	assert.Contains(t, err.Error(), "trial #3: trial_id is required")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trials.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trials:\n  - trial_id: NCT7\n    age_min: 1\n    age_max: 2\n"), 0o600))

	catalog, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NCT7"}, catalog.IDs())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
