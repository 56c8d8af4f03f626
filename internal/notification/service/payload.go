package service

import (
	"fmt"
	"strings"

	"vigil/internal/concern"
	"vigil/internal/notification/models"
	"vigil/pkg/domain"
)

// Payloads are deliberately vague: the category stays behind the deep link.

func flagPayload(deepLinkBase string, flag concern.Flag) models.Payload {
	urgent := flag.Severity == concern.SeverityCritical
	title := "New activity alert"
	if urgent {
		title = "Urgent activity alert"
	}
	return models.Payload{
		Title:    title,
		Body:     "Open the app to review new activity.",
		DeepLink: joinLink(deepLinkBase, "flags", flag.ID.String()),
		Urgent:   urgent,
	}
}

func digestPayload(deepLinkBase string, subjectID domain.SubjectID, count int, highest concern.Severity) models.Payload {
	noun := "flags"
	if count == 1 {
		noun = "flag"
	}
	return models.Payload{
		Title:    "Activity summary",
		Body:     fmt.Sprintf("%d new %s, highest: %s", count, noun, highest),
		DeepLink: joinLink(deepLinkBase, "subjects", subjectID.String(), "flags"),
	}
}

func joinLink(base string, parts ...string) string {
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.Join(parts, "/")
}
