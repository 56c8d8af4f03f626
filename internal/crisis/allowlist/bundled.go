package allowlist

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"vigil/internal/crisis/models"
)

//go:embed bundled.yaml
var bundledYAML []byte

// Bundled returns the snapshot compiled into the binary. If the embedded file
// is unusable it returns Baseline, so the result is never empty.
func Bundled() *models.Dataset {
	var ds models.Dataset
	if err := yaml.Unmarshal(bundledYAML, &ds); err != nil || ds.Validate() != nil {
		return Baseline()
	}
	return &ds
}

// Baseline is the last line of defence: a hard-coded minimal dataset.
func Baseline() *models.Dataset {
	return &models.Dataset{
		Version: "baseline",
		Entries: []models.Entry{
			{Pattern: "988lifeline.org", Category: models.CategoryCrisis},
			{Pattern: "suicidepreventionlifeline.org", Category: models.CategoryCrisis},
			{Pattern: "crisistextline.org", Category: models.CategoryCrisis},
			{Pattern: "thetrevorproject.org", Category: models.CategoryCrisis},
			{Pattern: "samaritans.org", Category: models.CategoryCrisis},
			{Pattern: "childline.org.uk", Category: models.CategoryCrisis},
			{Pattern: "kidshelpphone.ca", Category: models.CategoryCrisis},
			{Pattern: "lifeline.org.au", Category: models.CategoryCrisis},
			{Pattern: "findahelpline.com", Category: models.CategoryCrisis},
		},
		SafeDomains: []string{"google.com", "youtube.com", "facebook.com", "instagram.com", "wikipedia.org"},
	}
}
