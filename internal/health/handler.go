package health

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"lv-riskdash/internal/httputil"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler serves liveness and readiness probes. The pool is nil when the
// server runs on the in-memory store; readiness then has no dependency to
// check and always reports ok.
type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
	httpAddr  string
	storeKind string
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time, httpAddr, storeKind string) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{
		pool:      pool,
		startedAt: start,
		httpAddr:  strings.TrimSpace(httpAddr),
		storeKind: storeKind,
	}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
	Uptime    string `json:"uptime"`
}

type databaseStats struct {
	Reachable bool   `json:"reachable"`
	PingMs    int64  `json:"ping_ms"`
	Error     string `json:"error,omitempty"`
	CheckedAt string `json:"checked_at"`
	HasPool   bool   `json:"has_pool"`
}

type readinessResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	UptimeSec int64         `json:"uptime_sec"`
	Uptime    string        `json:"uptime"`
	Store     string        `json:"store"`
	Database  databaseStats `json:"database"`
}

type runtimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	GoMaxProcs int    `json:"gomaxprocs"`
	CPUCount   int    `json:"cpu_count"`
	NumGC      uint32 `json:"num_gc"`
}

type memoryStats struct {
	AllocBytes     uint64 `json:"alloc_bytes"`
	HeapInuseBytes uint64 `json:"heap_inuse_bytes"`
	SysBytes       uint64 `json:"sys_bytes"`
	HeapObjects    uint64 `json:"heap_objects"`
}

type buildStats struct {
	MainPath string `json:"main_path"`
	Version  string `json:"version"`
}

type fullResponse struct {
	Status    string        `json:"status"`
	Timestamp string        `json:"timestamp"`
	UptimeSec int64         `json:"uptime_sec"`
	Uptime    string        `json:"uptime"`
	HTTPAddr  string        `json:"http_addr"`
	Store     string        `json:"store"`
	Hostname  string        `json:"hostname"`
	PID       int           `json:"pid"`
	Runtime   runtimeStats  `json:"runtime"`
	Memory    memoryStats   `json:"memory"`
	Database  databaseStats `json:"database"`
	Build     buildStats    `json:"build"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	uptime := now.Sub(h.startedAt)
	if uptime < 0 {
		return 0
	}
	return uptime
}

func (h *Handler) collectDB(ctx context.Context) databaseStats {
	out := databaseStats{HasPool: h.pool != nil, CheckedAt: time.Now().UTC().Format(time.RFC3339)}
	if h.pool == nil {
		out.Reachable = true
		return out
	}
	pingStart := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	err := h.pool.Ping(pingCtx)
	cancel()
	out.PingMs = time.Since(pingStart).Milliseconds()
	out.CheckedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Reachable = true
	return out
}

// Live is a lightweight liveness endpoint and does not check database reachability.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
	})
}

// Ready checks the database when one is configured and returns 503 when it's
// not reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)
	db := h.collectDB(r.Context())
	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		Store:     h.storeKind,
		Database:  db,
	})
}

// Full returns process diagnostics for the ops dashboard.
func (h *Handler) Full(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	uptime := h.uptime(now)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	db := h.collectDB(r.Context())

	build := buildStats{}
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		build.MainPath = strings.TrimSpace(info.Main.Path)
		build.Version = strings.TrimSpace(info.Main.Version)
	}

	host := ""
	if hn, err := os.Hostname(); err == nil {
		host = hn
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.WriteJSON(w, httpStatus, fullResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(uptime.Seconds()),
		Uptime:    uptime.String(),
		HTTPAddr:  h.httpAddr,
		Store:     h.storeKind,
		Hostname:  host,
		PID:       os.Getpid(),
		Runtime: runtimeStats{
			GoVersion:  runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			GoMaxProcs: runtime.GOMAXPROCS(0),
			CPUCount:   runtime.NumCPU(),
			NumGC:      mem.NumGC,
		},
		Memory: memoryStats{
			AllocBytes:     mem.Alloc,
			HeapInuseBytes: mem.HeapInuse,
			SysBytes:       mem.Sys,
			HeapObjects:    mem.HeapObjects,
		},
		Database: db,
		Build:    build,
	})
}
