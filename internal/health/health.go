// Package health reports process diagnostics for the gateway.
package health

import (
	"runtime"
	"time"
)

// Options describes the serving process.
type Options struct {
	Provider  string
	Model     string
	StartedAt time.Time
}

// Snapshot is the body of the health endpoint.
type Snapshot struct {
	Status     string      `json:"status"`
	Provider   string      `json:"provider,omitempty"`
	Model      string      `json:"model,omitempty"`
	Uptime     string      `json:"uptime,omitempty"`
	Goroutines int         `json:"goroutines"`
	Memory     MemoryInfo  `json:"memory"`
	Runtime    RuntimeInfo `json:"runtime"`
	Timestamp  string      `json:"timestamp"`
}

// MemoryInfo is a subset of runtime.MemStats in megabytes.
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB"`
	SysMB        float64 `json:"sysMB"`
	NumGC        uint32  `json:"numGC"`
}

// RuntimeInfo identifies the Go runtime.
type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

// Collect returns a health snapshot for the current process.
func Collect(opts Options, now time.Time) Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Provider:   opts.Provider,
		Model:      opts.Model,
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
	if !opts.StartedAt.IsZero() {
		s.Uptime = now.Sub(opts.StartedAt).Truncate(time.Second).String()
	}
	return s
}
