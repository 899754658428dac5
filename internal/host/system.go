package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	gohost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Overview is a snapshot of host load.
type Overview struct {
	CPUPercent float64
	CPUMHz     float64
	Cores      int
	Threads    int
	MemTotal   uint64
	MemUsed    uint64
	MemPercent float64
	Disk       Disk
	Uptime     time.Duration
}

// Disk is usage of one mounted filesystem.
type Disk struct {
	Device     string
	Mountpoint string
	Fstype     string
	Total      uint64
	Used       uint64
	Percent    float64
}

// Sensor is one temperature reading in Celsius.
type Sensor struct {
	Name    string
	Celsius float64
}

// Process is one entry of the process table.
type Process struct {
	PID        int32
	Name       string
	RSS        uint64
	MemPercent float32
}

// System reports host metrics.
type System interface {
	Overview(ctx context.Context) (Overview, error)
	Disks(ctx context.Context) ([]Disk, error)
	Temperatures(ctx context.Context) ([]Sensor, error)
	Uptime(ctx context.Context) (time.Duration, error)
}

// Processes inspects and terminates processes.
type Processes interface {
	Top(ctx context.Context, n int) ([]Process, error)
	KillByName(ctx context.Context, name string) (int, error)
	KillByPID(ctx context.Context, pid int) (string, error)
}

// Metrics implements System and Processes with gopsutil.
type Metrics struct {
	// RootPath is the filesystem shown in the overview.
	RootPath string
	// Sample is the CPU sampling window.
	Sample time.Duration
}

// NewMetrics returns a gopsutil-backed provider.
func NewMetrics() *Metrics {
	return &Metrics{RootPath: "/", Sample: 500 * time.Millisecond}
}

func (m *Metrics) Overview(ctx context.Context) (Overview, error) {
	var ov Overview

	if pct, err := cpu.PercentWithContext(ctx, m.Sample, false); err == nil && len(pct) > 0 {
		ov.CPUPercent = pct[0]
	}
	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 {
		ov.CPUMHz = info[0].Mhz
	}
	ov.Cores, _ = cpu.CountsWithContext(ctx, false)
	ov.Threads, _ = cpu.CountsWithContext(ctx, true)

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return ov, fmt.Errorf("memory: %w", err)
	}
	ov.MemTotal, ov.MemUsed, ov.MemPercent = vm.Total, vm.Used, vm.UsedPercent

	root := m.RootPath
	if root == "" {
		root = "/"
	}
	if u, err := disk.UsageWithContext(ctx, root); err == nil {
		ov.Disk = Disk{Mountpoint: u.Path, Fstype: u.Fstype, Total: u.Total, Used: u.Used, Percent: u.UsedPercent}
	}
	ov.Uptime, _ = m.Uptime(ctx)
	return ov, nil
}

func (m *Metrics) Disks(ctx context.Context) ([]Disk, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("partitions: %w", err)
	}
	var out []Disk
	for _, p := range parts {
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		out = append(out, Disk{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Fstype:     p.Fstype,
			Total:      u.Total,
			Used:       u.Used,
			Percent:    u.UsedPercent,
		})
	}
	return out, nil
}

func (m *Metrics) Temperatures(ctx context.Context) ([]Sensor, error) {
	temps, err := gohost.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(temps) == 0 {
		return nil, fmt.Errorf("sensors: %w", ErrUnavailable)
	}
	var out []Sensor
	for _, t := range temps {
		if t.Temperature <= 0 {
			continue
		}
		out = append(out, Sensor{Name: t.SensorKey, Celsius: t.Temperature})
	}
	if len(out) == 0 {
		return nil, ErrUnavailable
	}
	return out, nil
}

func (m *Metrics) Uptime(ctx context.Context) (time.Duration, error) {
	secs, err := gohost.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// Top returns the n processes using the most memory.
func (m *Metrics) Top(ctx context.Context, n int) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		mi, err := p.MemoryInfoWithContext(ctx)
		if err != nil || mi == nil {
			continue
		}
		pct, _ := p.MemoryPercentWithContext(ctx)
		out = append(out, Process{PID: p.Pid, Name: name, RSS: mi.RSS, MemPercent: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RSS > out[j].RSS })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// KillByName kills every process whose name contains name, case-insensitively.
// It returns how many were killed.
func (m *Metrics) KillByName(ctx context.Context, name string) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}
	needle := strings.ToLower(name)
	killed := 0
	for _, p := range procs {
		pn, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(strings.ToLower(pn), needle) {
			continue
		}
		if err := p.KillWithContext(ctx); err == nil {
			killed++
		}
	}
	return killed, nil
}

// ErrNoProcess is returned when a pid does not exist.
var ErrNoProcess = errors.New("no such process")

// KillByPID kills one process and returns its name.
func (m *Metrics) KillByPID(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", fmt.Errorf("pid %d: %w", pid, ErrNoProcess)
	}
	name, _ := p.NameWithContext(ctx)
	if err := p.KillWithContext(ctx); err != nil {
		return name, fmt.Errorf("kill %d: %w", pid, err)
	}
	return name, nil
}
