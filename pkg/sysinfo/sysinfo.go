// Package sysinfo captures a snapshot of the host the benchmark ran on.
// The snapshot is recorded in run metadata so before/after pairs can be
// checked for environment drift.
package sysinfo

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Info describes the benchmark host.
type Info struct {
	Hostname        string  `json:"hostname,omitempty"`
	OS              string  `json:"os,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	PlatformVersion string  `json:"platform_version,omitempty"`
	KernelVersion   string  `json:"kernel_version,omitempty"`
	Arch            string  `json:"arch,omitempty"`
	CPUModel        string  `json:"cpu_model,omitempty"`
	CPUCores        int     `json:"cpu_cores,omitempty"`
	CPUMhz          float64 `json:"cpu_mhz,omitempty"`
	CPUGovernor     string  `json:"cpu_governor,omitempty"`
	MemoryTotalGB   float64 `json:"memory_total_gb,omitempty"`
}

// Collect gathers host information. Best-effort: individual probe
// failures leave the corresponding fields empty, and a fully failed
// collection returns nil.
func Collect(ctx context.Context) *Info {
	info := &Info{}

	populated := false

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = hi.Hostname
		info.OS = hi.OS
		info.Platform = hi.Platform
		info.PlatformVersion = hi.PlatformVersion
		info.KernelVersion = hi.KernelVersion
		info.Arch = hi.KernelArch
		populated = true
	}

	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
		info.CPUMhz = cpus[0].Mhz
		populated = true
	}

	if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCores = counts
		populated = true
	}

	if governor := scalingGovernor(); governor != "" {
		info.CPUGovernor = governor
		populated = true
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotalGB = float64(vm.Total) / (1024 * 1024 * 1024)
		populated = true
	}

	if !populated {
		return nil
	}

	return info
}

// scalingGovernor reads the cpu0 frequency scaling governor from sysfs.
// A host switching governors between the before and after phase skews
// every comparison, so the active governor is worth recording. Empty on
// non-Linux hosts.
func scalingGovernor() string {
	data, err := os.ReadFile(
		"/sys/devices/system/cpu/cpu0/cpufreq/scaling_governor")
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
