package model

// ContainerRecord is one row of `docker ps` output.
type ContainerRecord struct {
	ContainerID string `json:"container_id"`
	Image       string `json:"image"`
	Command     string `json:"command"`
	Created     string `json:"created"`
	Status      string `json:"status"`
	Ports       string `json:"ports"`
	Names       string `json:"names"`
}

// ImageRecord is one row of `docker images` output.
type ImageRecord struct {
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
	ImageID    string `json:"image_id"`
	Created    string `json:"created"`
	Size       string `json:"size"`
}

// NetworkRecord is one row of `docker network ls` output.
type NetworkRecord struct {
	NetworkID string `json:"network_id"`
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Scope     string `json:"scope"`
}

// VolumeRecord is one row of `docker volume ls` output.
type VolumeRecord struct {
	Driver     string `json:"driver"`
	VolumeName string `json:"volume_name"`
}

// InfoTree is the nested section/subsection mapping scraped from
// `docker info`. Leaf values are string, int or []string.
type InfoTree map[string]any

// ContainerCounts groups the container state counters of a SystemSummary.
type ContainerCounts struct {
	Total   any `json:"total"`
	Running any `json:"running"`
	Paused  any `json:"paused"`
	Stopped any `json:"stopped"`
}

// SystemSummary is the condensed view of an InfoTree served by
// /api/v1/system/summary.
type SystemSummary struct {
	DockerVersion   any             `json:"docker_version"`
	Containers      ContainerCounts `json:"containers"`
	Images          any             `json:"images"`
	StorageDriver   any             `json:"storage_driver"`
	OperatingSystem any             `json:"operating_system"`
	Architecture    any             `json:"architecture"`
	CPUs            any             `json:"cpus"`
	TotalMemory     any             `json:"total_memory"`
	KernelVersion   any             `json:"kernel_version"`
}
