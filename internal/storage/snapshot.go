package storage

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Veraticus/eshop-analytics/internal/service"
)

// MaxAutoSnapshots is how many automatic snapshots are kept; older ones are pruned.
const MaxAutoSnapshots = 5

// Snapshot errors.
var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotCorrupted = errors.New("snapshot integrity check failed")
	ErrSnapshotExists    = errors.New("snapshot already exists")
	ErrInvalidSnapshotID = errors.New("invalid snapshot id")
	ErrNoSnapshotFile    = errors.New("in-memory databases cannot be snapshotted")
)

// Snapshot describes a saved copy of the database.
type Snapshot struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	Sales         int       `json:"sales"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// SnapshotManager keeps copies of the database file next to it, in a
// "snapshots" directory. Each copy has a JSON sidecar with its metadata.
type SnapshotManager struct {
	store *SQLiteStorage
	now   func() time.Time
	dir   string
}

// Snapshots returns the snapshot manager of a file-backed store.
func (s *SQLiteStorage) Snapshots() (*SnapshotManager, error) {
	if s.dbPath == "" || s.dbPath == ":memory:" {
		return nil, ErrNoSnapshotFile
	}

	dir := filepath.Join(filepath.Dir(s.dbPath), "snapshots")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	return &SnapshotManager{store: s, dir: dir, now: time.Now}, nil
}

// AutoSnapshot takes an automatic snapshot of a file-backed store. In-memory
// stores have nothing to copy and return a zero SnapshotInfo.
func (s *SQLiteStorage) AutoSnapshot(ctx context.Context, reason string) (service.SnapshotInfo, error) {
	m, err := s.Snapshots()
	if errors.Is(err, ErrNoSnapshotFile) {
		return service.SnapshotInfo{}, nil
	}
	if err != nil {
		return service.SnapshotInfo{}, err
	}

	snap, err := m.Auto(ctx, reason)
	if err != nil {
		return service.SnapshotInfo{}, err
	}
	return service.SnapshotInfo{ID: snap.ID, Sales: snap.Sales}, nil
}

// Dir returns the directory holding the snapshots.
func (m *SnapshotManager) Dir() string {
	return m.dir
}

// Create copies the database under id. An empty id is generated from the clock.
func (m *SnapshotManager) Create(ctx context.Context, id, description string) (*Snapshot, error) {
	return m.create(ctx, id, description, false)
}

// Auto takes a snapshot before a destructive operation and prunes automatic
// snapshots beyond MaxAutoSnapshots.
func (m *SnapshotManager) Auto(ctx context.Context, reason string) (*Snapshot, error) {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(reason)), " ", "-")
	id := fmt.Sprintf("auto-%s-%s", slug, m.now().Format("20060102-150405.000"))

	snap, err := m.create(ctx, id, "Automatic snapshot before "+reason, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic snapshot: %w", err)
	}

	if err := m.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune automatic snapshots", "error", err)
	}
	return snap, nil
}

func (m *SnapshotManager) create(ctx context.Context, id, description string, auto bool) (*Snapshot, error) {
	if id == "" {
		id = "snapshot-" + m.now().Format("2006-01-02-150405")
	}
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}

	dbFile := m.dbFile(id)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotExists, id)
	}

	version, err := m.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	sales, err := m.store.CountSales(ctx)
	if err != nil {
		return nil, err
	}

	if err := m.vacuumInto(ctx, dbFile); err != nil {
		return nil, fmt.Errorf("failed to copy database: %w", err)
	}

	info, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat snapshot: %w", err)
	}

	snap := Snapshot{
		ID:            id,
		CreatedAt:     m.now(),
		Description:   description,
		FileSize:      info.Size(),
		Sales:         sales,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := writeSnapshotMeta(m.metaFile(id), snap); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("Failed to remove snapshot after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save snapshot metadata: %w", err)
	}

	slog.Info("Created snapshot", "id", id, "sales", sales, "size", snap.FileSize)
	return &snap, nil
}

// List returns all snapshots, newest first. Snapshots with unreadable
// metadata are skipped.
func (m *SnapshotManager) List(_ context.Context) ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots directory: %w", err)
	}

	snaps := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		snap, err := readSnapshotMeta(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable snapshot metadata", "file", entry.Name(), "error", err)
			continue
		}
		snaps = append(snaps, *snap)
	}

	slices.SortFunc(snaps, func(a, b Snapshot) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})
	return snaps, nil
}

// Get returns the metadata of one snapshot.
func (m *SnapshotManager) Get(_ context.Context, id string) (*Snapshot, error) {
	if err := validateSnapshotID(id); err != nil {
		return nil, err
	}
	snap, err := readSnapshotMeta(m.metaFile(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	return snap, err
}

// Restore replaces the database file with the snapshot. The store is closed
// in the process and must be reopened by the caller.
func (m *SnapshotManager) Restore(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}

	dbFile := m.dbFile(id)
	if _, err := os.Stat(dbFile); err != nil {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}
	if err := verifyIntegrity(ctx, dbFile); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotCorrupted, err)
	}

	dbPath := m.store.dbPath
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// A closed WAL database may still leave its side files behind; stale
	// ones would be replayed over the restored copy.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s file: %w", suffix, err)
		}
	}

	if err := copyFile(dbFile, dbPath); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	slog.Info("Restored snapshot", "id", id, "database", dbPath)
	return nil
}

// Delete removes a snapshot and its metadata.
func (m *SnapshotManager) Delete(_ context.Context, id string) error {
	if err := validateSnapshotID(id); err != nil {
		return err
	}

	if err := os.Remove(m.dbFile(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	if err := os.Remove(m.metaFile(id)); err != nil {
		slog.Debug("Failed to remove snapshot metadata", "id", id, "error", err)
	}
	return nil
}

func (m *SnapshotManager) pruneAuto(ctx context.Context) error {
	snaps, err := m.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, snap := range snaps {
		if !snap.IsAuto {
			continue
		}
		kept++
		if kept > MaxAutoSnapshots {
			if err := m.Delete(ctx, snap.ID); err != nil {
				slog.Debug("Failed to prune automatic snapshot", "id", snap.ID, "error", err)
			}
		}
	}
	return nil
}

// vacuumInto writes a consistent, compacted copy of the live database.
func (m *SnapshotManager) vacuumInto(ctx context.Context, dest string) error {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	quoted := "'" + strings.ReplaceAll(abs, "'", "''") + "'"
	// #nosec G202 - the path is quoted as an SQL string literal above
	_, err = m.store.db.ExecContext(ctx, "VACUUM INTO "+quoted)
	return err
}

func (m *SnapshotManager) dbFile(id string) string {
	return filepath.Join(m.dir, id+".db")
}

func (m *SnapshotManager) metaFile(id string) string {
	return filepath.Join(m.dir, id+".meta.json")
}

func validateSnapshotID(id string) error {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSnapshotID, id)
	}
	return nil
}

func verifyIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return errors.New(result)
	}
	return nil
}

func writeSnapshotMeta(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshotMeta(path string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// copyFile copies through a temporary file so dst is never half-written.
func copyFile(src, dst string) error {
	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmp := dst + ".tmp"
	dest, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}

	if _, err := io.Copy(dest, source); err != nil {
		_ = dest.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := dest.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
