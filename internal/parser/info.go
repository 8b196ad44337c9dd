package parser

import (
	"strconv"
	"strings"

	"github.com/johestephan/dokemon-api/internal/model"
)

var (
	infoSections    = map[string]bool{"Client": true, "Server": true}
	infoSubsections = map[string]bool{"Plugins": true, "Security Options": true}
)

// Info scrapes the indented key/value report printed by `docker info`.
//
// Lines are classified by their count of leading spaces:
//
//	depth 0, "key: value"  top-level value, or opens a section (Client, Server)
//	depth 1, "key: value"  value inside the current section, or opens a
//	                       subsection (Plugins, Security Options)
//	depth 2+, "key: value" value inside the current subsection
//	depth 1, "item"        appended to the current subsection's items
//
// Lines whose section or subsection context is missing are dropped.
func Info(output string) model.InfoTree {
	info := model.InfoTree{}
	if output == "" {
		return info
	}

	var (
		section    map[string]any
		subsection string
	)

	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		depth := len(line) - len(strings.TrimLeft(line, " "))
		key, value, hasColon := strings.Cut(strings.TrimSpace(line), ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case depth == 0 && hasColon:
			switch {
			case infoSections[key]:
				section = map[string]any{"type": value}
				info[key] = section
			case section != nil:
				section[key] = value
			default:
				info[key] = value
			}

		case depth == 1 && hasColon:
			if section == nil {
				continue
			}
			if infoSubsections[key] {
				subsection = key
				sub := map[string]any{}
				if value != "" {
					sub["details"] = value
				}
				section[key] = sub
				continue
			}
			section[key] = coerce(value)

		case depth >= 2 && hasColon:
			if section == nil || subsection == "" {
				continue
			}
			subsectionMap(section, subsection)[key] = value

		case depth == 1:
			if section == nil || subsection == "" {
				continue
			}
			sub := subsectionMap(section, subsection)
			items, _ := sub["items"].([]string)
			sub["items"] = append(items, strings.TrimSpace(line))
		}
	}
	return info
}

// subsectionMap returns the map stored under name in section, creating it
// when absent or when a plain value shadows it.
func subsectionMap(section map[string]any, name string) map[string]any {
	if m, ok := section[name].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	section[name] = m
	return m
}

// coerce turns an all-digit value into an int and leaves anything else,
// memory sizes such as "7.7GiB" included, as text.
func coerce(value string) any {
	if value == "" {
		return value
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return value
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return value
	}
	return n
}

// Summary condenses an InfoTree to the headline figures of the Server
// section. Missing values fall back to "Unknown" for text and 0 for counts.
func Summary(info model.InfoTree) model.SystemSummary {
	server, _ := info["Server"].(map[string]any)
	get := func(key string, fallback any) any {
		if v, ok := server[key]; ok {
			return v
		}
		return fallback
	}
	return model.SystemSummary{
		DockerVersion: get("Server Version", "Unknown"),
		Containers: model.ContainerCounts{
			Total:   get("Containers", 0),
			Running: get("Running", 0),
			Paused:  get("Paused", 0),
			Stopped: get("Stopped", 0),
		},
		Images:          get("Images", 0),
		StorageDriver:   get("Storage Driver", "Unknown"),
		OperatingSystem: get("Operating System", "Unknown"),
		Architecture:    get("Architecture", "Unknown"),
		CPUs:            get("CPUs", 0),
		TotalMemory:     get("Total Memory", "Unknown"),
		KernelVersion:   get("Kernel Version", "Unknown"),
	}
}
