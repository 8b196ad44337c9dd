package parser

import (
	"strings"

	"github.com/johestephan/dokemon-api/internal/model"
)

var imageTable = Table{
	{Label: "REPOSITORY", Fallback: field(0)},
	{Label: "TAG", Fallback: field(1)},
	{Label: "IMAGE ID", Fallback: field(2)},
	{Label: "CREATED", Fallback: imageCreatedFallback},
	{Label: "SIZE", Fallback: lastField},
}

// Images parses `docker images` output.
func Images(output string) []model.ImageRecord {
	rows := imageTable.Parse(output)
	out := make([]model.ImageRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ImageRecord{
			Repository: r[0],
			Tag:        r[1],
			ImageID:    r[2],
			Created:    r[3],
			Size:       r[4],
		})
	}
	return out
}

// imageCreatedFallback joins everything between the image ID and the size,
// since the created column is usually several words ("3 weeks ago").
func imageCreatedFallback(_ []rune, fields []string) string {
	if len(fields) >= 4 {
		return strings.Join(fields[3:len(fields)-1], " ")
	}
	return ""
}
