// Package workspace manages the temporary directories git repositories
// are cloned into: allocation, access tracking, size accounting, and
// eviction by age or total size.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/gitmcp/gitmcp/internal/audit"
	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/metrics"
	"github.com/gitmcp/gitmcp/internal/storage"
)

// CleanupStrategy selects the eviction order when total size exceeds
// the limit.
type CleanupStrategy string

const (
	CleanupLRU  CleanupStrategy = "lru"
	CleanupFIFO CleanupStrategy = "fifo"
)

const cleanupInterval = 5 * time.Minute

// Config controls workspace allocation and eviction.
type Config struct {
	RootPath        string
	MaxSizeBytes    int64
	Retention       time.Duration
	Strategy        CleanupStrategy
	MaxWorkspaces   int   // 0 means unlimited
	MaxPerWorkspace int64 // 0 derives from MaxSizeBytes
}

// Usage summarizes workspace disk consumption.
type Usage struct {
	TotalWorkspaces int     `json:"total_workspaces"`
	TotalSizeBytes  int64   `json:"total_size_bytes"`
	MaxSizeBytes    int64   `json:"max_size_bytes"`
	UsagePercent    float64 `json:"usage_percent"`
}

// DiskSpace describes the filesystem holding the workspace root.
type DiskSpace struct {
	TotalBytes   int64   `json:"total_bytes"`
	UsedBytes    int64   `json:"used_bytes"`
	FreeBytes    int64   `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

// DiskWarning is the low-space check result.
type DiskWarning struct {
	IsLow            bool    `json:"is_low"`
	WarningThreshold float64 `json:"warning_threshold_percent"`
	FreePercent      float64 `json:"free_percent"`
	DiskSpace
}

// Manager allocates, tracks, and evicts workspaces backed by the store.
type Manager struct {
	store *storage.Store
	cfg   Config
	rec   metrics.Recorder
	audit *audit.Logger
	log   *slog.Logger

	// newID generates workspace ids; tests override it to force
	// directory collisions.
	newID func() string

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// NewManager creates a workspace manager. rec and auditLog may be nil.
func NewManager(store *storage.Store, cfg Config, rec metrics.Recorder, auditLog *audit.Logger) (*Manager, error) {
	if cfg.Strategy == "" {
		cfg.Strategy = CleanupLRU
	}
	if err := os.MkdirAll(cfg.RootPath, 0o750); err != nil {
		return nil, giterr.Wrap(err, giterr.CodeSystemError, "Failed to create workspace root").
			WithParam("root", cfg.RootPath)
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		rec:   rec,
		audit: auditLog,
		log:   slog.Default().With(slog.String("component", "workspace")),
		newID: uuid.NewString,
	}, nil
}

// Start launches the periodic cleanup job.
func (m *Manager) Start() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return giterr.Wrap(err, giterr.CodeSystemError, "Failed to create cleanup scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cleanupInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, _, cleanupErr := m.CleanupExpired(ctx); cleanupErr != nil {
				m.log.Error("expired workspace cleanup failed", logfields.Error(cleanupErr))
			}
			if _, _, cleanupErr := m.CleanupBySize(ctx); cleanupErr != nil {
				m.log.Error("size-based workspace cleanup failed", logfields.Error(cleanupErr))
			}
		}),
	)
	if err != nil {
		return giterr.Wrap(err, giterr.CodeSystemError, "Failed to schedule cleanup job")
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.log.Info("workspace manager started",
		logfields.Path(m.cfg.RootPath),
		logfields.Bytes(m.cfg.MaxSizeBytes),
	)
	return nil
}

// Stop halts the cleanup job.
func (m *Manager) Stop() error {
	if m.scheduler == nil {
		return nil
	}
	return m.scheduler.Shutdown()
}

// Allocate creates a fresh workspace directory and record. The count
// cap is checked and the record inserted under one lock so concurrent
// allocations cannot overshoot it.
func (m *Manager) Allocate(ctx context.Context) (*storage.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxWorkspaces > 0 {
		count, err := m.store.CountWorkspaces(ctx)
		if err != nil {
			return nil, err
		}
		if count >= m.cfg.MaxWorkspaces {
			return nil, giterr.ResourceExhausted(
				fmt.Sprintf("Workspace limit reached (%d)", m.cfg.MaxWorkspaces)).
				WithSuggestion("Release unused workspaces and try again")
		}
	}

	// os.Mkdir fails on an existing path; a collision with a leftover
	// directory retries under a fresh id rather than adopting it.
	var id, path string
	for attempt := 0; ; attempt++ {
		id = m.newID()
		path = filepath.Join(m.cfg.RootPath, id)
		err := os.Mkdir(path, 0o750)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) || attempt >= 3 {
			return nil, giterr.Wrap(err, giterr.CodeSystemError, "Failed to create workspace directory").
				WithParam("path", path)
		}
	}

	now := time.Now().UTC()
	ws := &storage.Workspace{
		ID:             id,
		Path:           path,
		SizeBytes:      0,
		LastAccessedAt: now,
		CreatedAt:      now,
	}
	if err := m.store.CreateWorkspace(ctx, ws); err != nil {
		_ = os.RemoveAll(path)
		return nil, err
	}

	m.rec.IncWorkspaceAllocated()
	if m.audit != nil {
		m.audit.Info(audit.EventWorkspaceAllocated, id, map[string]any{"path": path})
	}
	m.log.Info("workspace allocated", logfields.WorkspaceID(id), logfields.Path(path))
	return ws, nil
}

// Get returns a workspace by ID.
func (m *Manager) Get(ctx context.Context, id string) (*storage.Workspace, error) {
	return m.store.GetWorkspace(ctx, id)
}

// GetByPath returns a workspace by its directory path.
func (m *Manager) GetByPath(ctx context.Context, path string) (*storage.Workspace, error) {
	return m.store.GetWorkspaceByPath(ctx, path)
}

// Touch refreshes the workspace access time for LRU ordering.
func (m *Manager) Touch(ctx context.Context, id string) error {
	return m.store.UpdateWorkspace(ctx, id, map[string]any{
		"last_accessed_at": time.Now().UTC(),
	})
}

// UpdateSize measures the workspace directory and stores the result.
// A vanished directory is not an error.
func (m *Manager) UpdateSize(ctx context.Context, id string) error {
	ws, err := m.store.GetWorkspace(ctx, id)
	if err != nil {
		return err
	}
	size := directorySize(ws.Path)
	return m.store.UpdateWorkspace(ctx, id, map[string]any{
		"size_bytes":       size,
		"last_accessed_at": time.Now().UTC(),
	})
}

// Release removes the workspace directory and record. Returns false
// when the workspace does not exist; directory removal failures are
// logged, not fatal.
func (m *Manager) Release(ctx context.Context, id string) (bool, error) {
	ws, err := m.store.GetWorkspace(ctx, id)
	if err != nil {
		if giterr.CodeOf(err) == giterr.CodeRepoNotFound {
			return false, nil
		}
		return false, err
	}

	if rmErr := os.RemoveAll(ws.Path); rmErr != nil {
		m.log.Warn("failed to remove workspace directory",
			logfields.WorkspaceID(id),
			logfields.Path(ws.Path),
			logfields.Error(rmErr),
		)
	}
	if _, err := m.store.DeleteWorkspace(ctx, id); err != nil {
		return false, err
	}

	m.rec.IncWorkspaceReleased()
	if m.audit != nil {
		m.audit.Info(audit.EventWorkspaceReleased, id, map[string]any{"path": ws.Path})
	}
	m.log.Info("workspace released", logfields.WorkspaceID(id), logfields.Path(ws.Path))
	return true, nil
}

// List returns up to limit workspaces, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]*storage.Workspace, error) {
	workspaces, err := m.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(workspaces) > limit {
		workspaces = workspaces[:limit]
	}
	return workspaces, nil
}

// CleanupExpired releases workspaces idle past the retention window.
// Returns the count released and bytes freed.
func (m *Manager) CleanupExpired(ctx context.Context) (int, int64, error) {
	workspaces, err := m.oldestFirst(ctx, 100)
	if err != nil {
		return 0, 0, err
	}

	cutoff := time.Now().UTC().Add(-m.cfg.Retention)
	cleaned := 0
	var freed int64
	for _, ws := range workspaces {
		if !ws.LastAccessedAt.Before(cutoff) {
			continue
		}
		size := m.workspaceSize(ws)
		released, relErr := m.Release(ctx, ws.ID)
		if relErr != nil {
			return cleaned, freed, relErr
		}
		if released {
			cleaned++
			freed += size
			m.rec.IncWorkspaceEvicted("expired")
		}
	}

	if cleaned > 0 {
		m.log.Info("cleaned up expired workspaces",
			logfields.Count(cleaned),
			logfields.Bytes(freed),
		)
	}
	return cleaned, freed, nil
}

// CleanupBySize evicts workspaces until total usage drops to 80% of the
// configured limit. Eviction order follows the configured strategy.
func (m *Manager) CleanupBySize(ctx context.Context) (int, int64, error) {
	total, err := m.store.GetWorkspaceTotalSize(ctx)
	if err != nil {
		return 0, 0, err
	}
	if total <= m.cfg.MaxSizeBytes {
		return 0, 0, nil
	}

	target := int64(float64(m.cfg.MaxSizeBytes) * 0.8)
	workspaces, err := m.oldestFirst(ctx, 100)
	if err != nil {
		return 0, 0, err
	}

	cleaned := 0
	var freed int64
	for _, ws := range workspaces {
		if total <= target {
			break
		}
		size := m.workspaceSize(ws)
		released, relErr := m.Release(ctx, ws.ID)
		if relErr != nil {
			return cleaned, freed, relErr
		}
		if released {
			cleaned++
			freed += size
			total -= size
			m.rec.IncWorkspaceEvicted("size")
		}
	}

	if cleaned > 0 {
		m.log.Info("cleaned up workspaces for size",
			logfields.Count(cleaned),
			logfields.Bytes(freed),
		)
	}
	return cleaned, freed, nil
}

// Usage reports aggregate workspace consumption.
func (m *Manager) Usage(ctx context.Context) (*Usage, error) {
	workspaces, err := m.store.ListWorkspaces(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, ws := range workspaces {
		total += ws.SizeBytes
	}
	u := &Usage{
		TotalWorkspaces: len(workspaces),
		TotalSizeBytes:  total,
		MaxSizeBytes:    m.cfg.MaxSizeBytes,
	}
	if m.cfg.MaxSizeBytes > 0 {
		u.UsagePercent = float64(total) / float64(m.cfg.MaxSizeBytes) * 100
	}
	return u, nil
}

// PerWorkspaceLimit is the single-workspace size cap: the configured
// value, else 10% of the total limit with a 1GiB floor.
func (m *Manager) PerWorkspaceLimit() int64 {
	if m.cfg.MaxPerWorkspace > 0 {
		return m.cfg.MaxPerWorkspace
	}
	limit := m.cfg.MaxSizeBytes / 10
	if floor := int64(1024 * 1024 * 1024); limit < floor {
		return floor
	}
	return limit
}

// CheckSizeLimit reports whether a workspace is under its cap and its
// recorded size. Unknown workspaces pass.
func (m *Manager) CheckSizeLimit(ctx context.Context, id string) (bool, int64, error) {
	ws, err := m.store.GetWorkspace(ctx, id)
	if err != nil {
		if giterr.CodeOf(err) == giterr.CodeRepoNotFound {
			return true, 0, nil
		}
		return false, 0, err
	}
	return ws.SizeBytes < m.PerWorkspaceLimit(), ws.SizeBytes, nil
}

// EnforceSizeLimit releases a workspace more than 20% over its cap and
// warns for anything between the cap and that threshold. Returns true
// when the workspace survives.
func (m *Manager) EnforceSizeLimit(ctx context.Context, id string) (bool, error) {
	within, size, err := m.CheckSizeLimit(ctx, id)
	if err != nil {
		return false, err
	}
	if within {
		return true, nil
	}

	limit := m.PerWorkspaceLimit()
	if float64(size) > float64(limit)*1.2 {
		if _, relErr := m.Release(ctx, id); relErr != nil {
			return false, relErr
		}
		m.rec.IncWorkspaceEvicted("size_limit")
		m.log.Warn("workspace exceeded size limit, released",
			logfields.WorkspaceID(id),
			logfields.Bytes(size),
		)
		return false, nil
	}

	m.log.Warn("workspace approaching size limit",
		logfields.WorkspaceID(id),
		logfields.Bytes(size),
	)
	return true, nil
}

// ValidatePath reports whether p resolves inside the workspace root.
func (m *Manager) ValidatePath(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	root, err := filepath.Abs(m.cfg.RootPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// DiskSpaceInfo reports the filesystem stats for the workspace root.
func (m *Manager) DiskSpaceInfo() (*DiskSpace, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(m.cfg.RootPath, &stat); err != nil {
		return nil, giterr.Wrap(err, giterr.CodeSystemError, "Failed to stat workspace filesystem").
			WithParam("root", m.cfg.RootPath)
	}

	total := int64(stat.Blocks) * int64(stat.Bsize)
	free := int64(stat.Bavail) * int64(stat.Bsize)
	used := total - free
	ds := &DiskSpace{
		TotalBytes: total,
		UsedBytes:  used,
		FreeBytes:  free,
	}
	if total > 0 {
		ds.UsagePercent = float64(used) / float64(total) * 100
	}
	return ds, nil
}

// CheckDiskSpaceWarning flags the filesystem when free space falls
// below threshold percent.
func (m *Manager) CheckDiskSpaceWarning(threshold float64) (*DiskWarning, error) {
	ds, err := m.DiskSpaceInfo()
	if err != nil {
		return nil, err
	}

	var freePercent float64
	if ds.TotalBytes > 0 {
		freePercent = float64(ds.FreeBytes) / float64(ds.TotalBytes) * 100
	}
	return &DiskWarning{
		IsLow:            freePercent < threshold,
		WarningThreshold: threshold,
		FreePercent:      freePercent,
		DiskSpace:        *ds,
	}, nil
}

// oldestFirst returns candidates in eviction order.
func (m *Manager) oldestFirst(ctx context.Context, limit int) ([]*storage.Workspace, error) {
	if m.cfg.Strategy == CleanupFIFO {
		return m.store.GetOldestWorkspacesByCreation(ctx, limit)
	}
	return m.store.GetOldestWorkspaces(ctx, limit)
}

// workspaceSize prefers the live directory size, falling back to the
// recorded one.
func (m *Manager) workspaceSize(ws *storage.Workspace) int64 {
	if size := directorySize(ws.Path); size > 0 {
		return size
	}
	return ws.SizeBytes
}

// directorySize sums file sizes under path; unreadable entries count 0.
func directorySize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
