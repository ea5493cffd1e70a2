// Package sysstats samples host CPU, memory, disk and network usage.
package sysstats

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

const (
	cacheKey    = "system"
	cacheTTL    = 5 * time.Second
	cpuInterval = time.Second
)

// CPU is processor usage.
type CPU struct {
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

// Usage is total/used/free with a used percentage.
type Usage struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// Network is cumulative interface byte counters.
type Network struct {
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
}

// System is one host sample.
type System struct {
	CPU     CPU     `json:"cpu"`
	Memory  Usage   `json:"memory"`
	Disk    Usage   `json:"disk"`
	Network Network `json:"network"`
}

// Source reads raw host metrics.
type Source interface {
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	CPUCount(ctx context.Context) (int, error)
	Memory(ctx context.Context) (Usage, error)
	Disk(ctx context.Context, path string) (Usage, error)
	Network(ctx context.Context) (Network, error)
}

// Collector samples a Source and caches the result briefly so repeated
// dashboard polls do not each block on a CPU sample.
type Collector struct {
	source Source
	path   string
	cache  *cache.Cache
}

// NewCollector creates a Collector reading the host through gopsutil.
// Disk usage is reported for the filesystem holding path.
func NewCollector(path string) *Collector {
	return newCollector(hostSource{}, path)
}

func newCollector(source Source, path string) *Collector {
	return &Collector{
		source: source,
		path:   path,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
	}
}

// Collect returns a cached sample or takes a new one.
func (c *Collector) Collect(ctx context.Context) (*System, error) {
	if v, ok := c.cache.Get(cacheKey); ok {
		return v.(*System), nil
	}

	var s System
	var err error
	if s.CPU.Percent, err = c.source.CPUPercent(ctx, cpuInterval); err != nil {
		return nil, fmt.Errorf("cpu percent: %w", err)
	}
	if s.CPU.Count, err = c.source.CPUCount(ctx); err != nil {
		return nil, fmt.Errorf("cpu count: %w", err)
	}
	if s.Memory, err = c.source.Memory(ctx); err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	if s.Disk, err = c.source.Disk(ctx, c.path); err != nil {
		return nil, fmt.Errorf("disk: %w", err)
	}
	if s.Network, err = c.source.Network(ctx); err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	c.cache.SetDefault(cacheKey, &s)
	return &s, nil
}

type hostSource struct{}

func (hostSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, nil
	}
	return pcts[0], nil
}

func (hostSource) CPUCount(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (hostSource) Memory(ctx context.Context) (Usage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Total: vm.Total, Used: vm.Used, Free: vm.Available, Percent: vm.UsedPercent}, nil
}

func (hostSource) Disk(ctx context.Context, path string) (Usage, error) {
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Total: du.Total, Used: du.Used, Free: du.Free, Percent: du.UsedPercent}, nil
}

func (hostSource) Network(ctx context.Context) (Network, error) {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return Network{}, err
	}
	if len(counters) == 0 {
		return Network{}, nil
	}
	return Network{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}, nil
}
