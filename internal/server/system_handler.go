package server

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

// SystemInfo describes the host the daemon manages volumes on.
type SystemInfo struct {
	Hostname    string `json:"hostname"`
	Uptime      uint64 `json:"uptime"`
	Kernel      string `json:"kernel"`
	Platform    string `json:"platform"`
	Arch        string `json:"arch,omitempty"`
	CPUCount    int    `json:"cpuCount,omitempty"`
	MemoryTotal uint64 `json:"memoryTotal,omitempty"`
	MemoryUsed  uint64 `json:"memoryUsed,omitempty"`
	DaemonUp    uint64 `json:"daemonUptime"`
}

type SystemHandler struct{}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

func (h *SystemHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetSystemInfo)
	r.Get("/info", h.GetSystemInfo)

	return r
}

// GetSystemInfo returns host information.
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Arch:     runtime.GOARCH,
		DaemonUp: uint64(time.Since(startTime).Seconds()),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}
	if hostInfo, err := host.Info(); err == nil {
		info.Uptime = hostInfo.Uptime
		info.Kernel = hostInfo.KernelVersion
		info.Platform = hostInfo.Platform + " " + hostInfo.PlatformVersion
	}
	if cpuCount, err := cpu.Counts(true); err == nil {
		info.CPUCount = cpuCount
	}
	if memInfo, err := mem.VirtualMemory(); err == nil {
		info.MemoryTotal = memInfo.Total
		info.MemoryUsed = memInfo.Used
	}

	writeJSON(w, info)
}
