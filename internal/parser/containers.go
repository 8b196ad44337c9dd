package parser

import (
	"strings"

	"github.com/johestephan/dokemon-api/internal/model"
)

var containerTable = Table{
	{Label: "CONTAINER ID", Fallback: containerIDFallback},
	{Label: "IMAGE", Fallback: field(1)},
	{Label: "COMMAND", Fallback: field(2)},
	{Label: "CREATED", Fallback: field(3)},
	{Label: "STATUS", Fallback: statusFallback},
	{Label: "PORTS", Fallback: portsFallback},
	{Label: "NAMES", Fallback: lastField},
}

// Containers parses `docker ps` output.
func Containers(output string) []model.ContainerRecord {
	rows := containerTable.Parse(output)
	out := make([]model.ContainerRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ContainerRecord{
			ContainerID: r[0],
			Image:       r[1],
			Command:     r[2],
			Created:     r[3],
			Status:      r[4],
			Ports:       r[5],
			Names:       r[6],
		})
	}
	return out
}

// containerIDFallback takes the first 12 characters, the width of a short ID.
func containerIDFallback(line []rune, _ []string) string {
	return between(line, 0, 12)
}

// statusFallback rebuilds a multi-word status such as "Up 3 hours" from the
// first token carrying a state marker, stopping at anything that looks like
// a port mapping. At most four tokens are taken.
func statusFallback(_ []rune, fields []string) string {
	for i, f := range fields {
		if !strings.Contains(f, "Up") && !strings.Contains(f, "Exited") && !strings.Contains(f, "Created") {
			continue
		}
		var parts []string
		for j := i; j < i+4 && j < len(fields); j++ {
			if strings.HasPrefix(fields[j], "0.0.0.0") || strings.Contains(fields[j], "->") {
				break
			}
			parts = append(parts, fields[j])
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// portsFallback collects every token that looks like a port mapping.
func portsFallback(_ []rune, fields []string) string {
	var ports []string
	for _, f := range fields {
		if strings.Contains(f, "->") ||
			strings.Contains(f, ":") && (strings.Contains(f, "tcp") || strings.Contains(f, "udp")) {
			ports = append(ports, f)
		}
	}
	return strings.Join(ports, ", ")
}
