package parser

import "github.com/johestephan/dokemon-api/internal/model"

var volumeTable = Table{
	{Label: "DRIVER", Fallback: field(0)},
	{Label: "VOLUME NAME", Fallback: field(1)},
}

// Volumes parses `docker volume ls` output.
func Volumes(output string) []model.VolumeRecord {
	rows := volumeTable.Parse(output)
	out := make([]model.VolumeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.VolumeRecord{
			Driver:     r[0],
			VolumeName: r[1],
		})
	}
	return out
}
