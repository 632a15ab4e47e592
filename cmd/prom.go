package cmd

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gnet "github.com/shirou/gopsutil/v4/net"
)

const collectInterval = 5 * time.Second

// metricsHandler serves the default registry. It is built once since
// promhttp.Handler registers its own scrape counters.
var metricsHandler = promhttp.Handler()

type SystemMetrics struct {
	CPUUsage     prometheus.Gauge
	MemoryUsed   prometheus.Gauge
	DiskUsed     prometheus.Gauge
	DiskRead     prometheus.Counter
	DiskWrite    prometheus.Counter
	NetworkRecv  prometheus.Counter
	NetworkTrans prometheus.Counter

	prevDiskRead, prevDiskWrite uint64
	prevNetRecv, prevNetTrans   uint64
}

func newSystemMetrics(reg prometheus.Registerer) *SystemMetrics {
	factory := promauto.With(reg)
	return &SystemMetrics{
		CPUUsage: factory.NewGauge(prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "Total CPU usage percentage across all cores",
		}),
		MemoryUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "system_memory_used_bytes",
			Help: "Total used memory in bytes",
		}),
		DiskUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "system_disk_used_bytes",
			Help: "Total disk usage in bytes for root filesystem",
		}),
		DiskRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "system_disk_read_bytes_total",
			Help: "Total disk read bytes since boot",
		}),
		DiskWrite: factory.NewCounter(prometheus.CounterOpts{
			Name: "system_disk_write_bytes_total",
			Help: "Total disk write bytes since boot",
		}),
		NetworkRecv: factory.NewCounter(prometheus.CounterOpts{
			Name: "system_network_receive_bytes_total",
			Help: "Total received bytes across all interfaces",
		}),
		NetworkTrans: factory.NewCounter(prometheus.CounterOpts{
			Name: "system_network_transmit_bytes_total",
			Help: "Total transmitted bytes across all interfaces",
		}),
	}
}

// delta guards counters against source counters that went backwards.
func delta(curr, prev uint64) float64 {
	if curr < prev {
		return 0
	}
	return float64(curr - prev)
}

func (m *SystemMetrics) sample() {
	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		m.CPUUsage.Set(cpuPercent[0])
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		m.MemoryUsed.Set(float64(vmStat.Used))
	}

	if diskStat, err := disk.Usage("/"); err == nil {
		m.DiskUsed.Set(float64(diskStat.Used))
	}

	if ioStats, err := disk.IOCounters(); err == nil {
		var totalRead, totalWrite uint64
		for _, io := range ioStats {
			totalRead += io.ReadBytes
			totalWrite += io.WriteBytes
		}
		m.DiskRead.Add(delta(totalRead, m.prevDiskRead))
		m.DiskWrite.Add(delta(totalWrite, m.prevDiskWrite))
		m.prevDiskRead, m.prevDiskWrite = totalRead, totalWrite
	}

	if netStats, err := gnet.IOCounters(false); err == nil && len(netStats) > 0 {
		currRecv := netStats[0].BytesRecv
		currTrans := netStats[0].BytesSent
		m.NetworkRecv.Add(delta(currRecv, m.prevNetRecv))
		m.NetworkTrans.Add(delta(currTrans, m.prevNetTrans))
		m.prevNetRecv, m.prevNetTrans = currRecv, currTrans
	}
}

// Collect samples system usage every few seconds until ctx is done.
func (m *SystemMetrics) Collect(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(collectInterval)
		defer ticker.Stop()
		for {
			m.sample()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *Server) RegisterMetrics(ctx context.Context) {
	sysMetrics := newSystemMetrics(prometheus.DefaultRegisterer)
	sysMetrics.Collect(ctx)
	log.Info().Msg("system metrics collector started")
}

