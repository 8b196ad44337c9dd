package parser

import "github.com/johestephan/dokemon-api/internal/model"

var networkTable = Table{
	{Label: "NETWORK ID", Fallback: field(0)},
	{Label: "NAME", Fallback: field(1)},
	{Label: "DRIVER", Fallback: field(2)},
	{Label: "SCOPE", Fallback: field(3)},
}

// Networks parses `docker network ls` output.
func Networks(output string) []model.NetworkRecord {
	rows := networkTable.Parse(output)
	out := make([]model.NetworkRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.NetworkRecord{
			NetworkID: r[0],
			Name:      r[1],
			Driver:    r[2],
			Scope:     r[3],
		})
	}
	return out
}
