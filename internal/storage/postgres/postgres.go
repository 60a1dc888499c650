// Package postgres is a jackc/pgx/v5-backed implementation of
// storage.Store, the alternative to the in-memory store once MONGODB_URI
// (repurposed here as a Postgres DSN — no Mongo driver appears anywhere in
// the example pack this engine draws from) points at a real database.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/check"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/schedulerjob"
	"github.com/alexisbeaulieu97/uptimer/internal/domain/stage"
	uperrors "github.com/alexisbeaulieu97/uptimer/pkg/errors"
)

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool      *pgxpool.Pool
	retention int
}

// Open connects to dsn and returns a ready Store. Callers are responsible
// for calling Close. Schema migration is handled by Migrate, called
// separately by the cmd/monitorengine `migrate` subcommand.
func Open(ctx context.Context, dsn string, retention int) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, uperrors.NewStorageError("open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, uperrors.NewStorageError("ping", err)
	}
	if retention <= 0 {
		retention = 1000
	}
	return &Store{pool: pool, retention: retention}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the monitors, results, and scheduler_jobs tables if they
// do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS monitors (
	id text PRIMARY KEY,
	name text NOT NULL,
	url text NOT NULL,
	pipeline jsonb NOT NULL,
	interval_seconds integer NOT NULL,
	schedule text NOT NULL DEFAULT '',
	enabled boolean NOT NULL DEFAULT true,
	tags text[] NOT NULL DEFAULT '{}',
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	last_check timestamptz,
	last_status text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS results (
	id text PRIMARY KEY,
	monitor_id text NOT NULL REFERENCES monitors(id) ON DELETE CASCADE,
	checked_at timestamptz NOT NULL,
	status text NOT NULL,
	message text NOT NULL,
	elapsed_ms double precision NOT NULL,
	details jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS results_monitor_checked_at_idx ON results (monitor_id, checked_at DESC);

CREATE TABLE IF NOT EXISTS scheduler_jobs (
	monitor_id text PRIMARY KEY,
	trigger_kind text NOT NULL,
	trigger_spec text NOT NULL,
	next_run_at timestamptz NOT NULL,
	last_updated timestamptz NOT NULL
);
`
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return uperrors.NewStorageError("migrate", err)
	}
	return nil
}

func (s *Store) CreateMonitor(ctx context.Context, m monitor.Monitor) (monitor.Monitor, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.Tags = monitor.NormalizeTags(m.Tags)

	pipelineJSON, err := json.Marshal(m.Pipeline)
	if err != nil {
		return monitor.Monitor{}, uperrors.NewStorageError("create_monitor", err)
	}

	const q = `INSERT INTO monitors (id, name, url, pipeline, interval_seconds, schedule, enabled, tags, created_at, updated_at, last_status)
	           VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'')`
	_, err = s.pool.Exec(ctx, q, m.ID, m.Name, m.URL, pipelineJSON, m.Interval, m.Schedule, m.Enabled, m.Tags, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return monitor.Monitor{}, uperrors.NewStorageError("create_monitor", err)
	}
	return m, nil
}

func (s *Store) GetMonitor(ctx context.Context, id string) (monitor.Monitor, error) {
	const q = `SELECT id, name, url, pipeline, interval_seconds, schedule, enabled, tags, created_at, updated_at, last_check, last_status
	           FROM monitors WHERE id = $1`
	row := s.pool.QueryRow(ctx, q, id)
	m, err := scanMonitor(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return monitor.Monitor{}, uperrors.NewNotFoundError("monitor", id)
		}
		return monitor.Monitor{}, uperrors.NewStorageError("get_monitor", err)
	}
	return m, nil
}

func (s *Store) ListMonitors(ctx context.Context, tag string) ([]monitor.Monitor, error) {
	q := `SELECT id, name, url, pipeline, interval_seconds, schedule, enabled, tags, created_at, updated_at, last_check, last_status
	      FROM monitors`
	args := []any{}
	if tag != "" {
		q += ` WHERE $1 = ANY(tags)`
		args = append(args, tag)
	}
	q += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, uperrors.NewStorageError("list_monitors", err)
	}
	defer rows.Close()

	var out []monitor.Monitor
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, uperrors.NewStorageError("list_monitors", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMonitor(ctx context.Context, id string, patch monitor.Patch) (monitor.Monitor, error) {
	m, err := s.GetMonitor(ctx, id)
	if err != nil {
		return monitor.Monitor{}, err
	}
	patch.Apply(&m, time.Now().UTC())

	pipelineJSON, err := json.Marshal(m.Pipeline)
	if err != nil {
		return monitor.Monitor{}, uperrors.NewStorageError("update_monitor", err)
	}

	const q = `UPDATE monitors SET name=$2, url=$3, pipeline=$4, interval_seconds=$5, schedule=$6, enabled=$7, tags=$8, updated_at=$9
	           WHERE id=$1`
	_, err = s.pool.Exec(ctx, q, m.ID, m.Name, m.URL, pipelineJSON, m.Interval, m.Schedule, m.Enabled, m.Tags, m.UpdatedAt)
	if err != nil {
		return monitor.Monitor{}, uperrors.NewStorageError("update_monitor", err)
	}
	return m, nil
}

func (s *Store) DeleteMonitor(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitors WHERE id = $1`, id)
	if err != nil {
		return uperrors.NewStorageError("delete_monitor", err)
	}
	if tag.RowsAffected() == 0 {
		return uperrors.NewNotFoundError("monitor", id)
	}
	return nil
}

func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT unnest(tags) AS tag FROM monitors ORDER BY tag`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, uperrors.NewStorageError("list_tags", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, uperrors.NewStorageError("list_tags", err)
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMonitorMirror(ctx context.Context, id string, checkedAt time.Time, status stage.Status) error {
	const q = `UPDATE monitors SET last_check = $2, last_status = $3 WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, id, checkedAt, string(status))
	if err != nil {
		return uperrors.NewStorageError("update_monitor_mirror", err)
	}
	return nil
}

func (s *Store) AppendResult(ctx context.Context, result check.Result) error {
	detailsJSON, err := json.Marshal(result.Details)
	if err != nil {
		return uperrors.NewStorageError("append_result", err)
	}

	const insert = `INSERT INTO results (id, monitor_id, checked_at, status, message, elapsed_ms, details)
	                VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (id) DO NOTHING`
	if _, err := s.pool.Exec(ctx, insert, result.ID, result.MonitorID, result.CheckedAt, string(result.Status), result.Message, result.ElapsedMs, detailsJSON); err != nil {
		return uperrors.NewStorageError("append_result", err)
	}

	const evict = `DELETE FROM results WHERE monitor_id = $1 AND id NOT IN (
	                 SELECT id FROM results WHERE monitor_id = $1 ORDER BY checked_at DESC LIMIT $2
	               )`
	if _, err := s.pool.Exec(ctx, evict, result.MonitorID, s.retention); err != nil {
		return uperrors.NewStorageError("append_result", err)
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, monitorID string, limit int) ([]check.Result, error) {
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}
	const q = `SELECT id, monitor_id, checked_at, status, message, elapsed_ms, details
	           FROM results WHERE monitor_id = $1 ORDER BY checked_at DESC LIMIT $2`
	rows, err := s.pool.Query(ctx, q, monitorID, limit)
	if err != nil {
		return nil, uperrors.NewStorageError("list_results", err)
	}
	defer rows.Close()

	var out []check.Result
	for rows.Next() {
		var r check.Result
		var statusStr string
		var detailsJSON []byte
		if err := rows.Scan(&r.ID, &r.MonitorID, &r.CheckedAt, &statusStr, &r.Message, &r.ElapsedMs, &detailsJSON); err != nil {
			return nil, uperrors.NewStorageError("list_results", err)
		}
		r.Status = stage.Status(statusStr)
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &r.Details)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpsertJob(ctx context.Context, job schedulerjob.Job) error {
	const q = `INSERT INTO scheduler_jobs (monitor_id, trigger_kind, trigger_spec, next_run_at, last_updated)
	           VALUES ($1,$2,$3,$4,$5)
	           ON CONFLICT (monitor_id) DO UPDATE SET trigger_kind=$2, trigger_spec=$3, next_run_at=$4, last_updated=$5`
	_, err := s.pool.Exec(ctx, q, job.MonitorID, string(job.TriggerKind), job.TriggerSpec, job.NextRunAt, job.LastUpdated)
	if err != nil {
		return uperrors.NewStorageError("upsert_job", err)
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, monitorID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM scheduler_jobs WHERE monitor_id = $1`, monitorID)
	if err != nil {
		return uperrors.NewStorageError("delete_job", err)
	}
	return nil
}

func (s *Store) IterAllJobs(ctx context.Context) ([]schedulerjob.Job, error) {
	const q = `SELECT monitor_id, trigger_kind, trigger_spec, next_run_at, last_updated FROM scheduler_jobs ORDER BY monitor_id`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, uperrors.NewStorageError("iter_all_jobs", err)
	}
	defer rows.Close()

	var out []schedulerjob.Job
	for rows.Next() {
		var j schedulerjob.Job
		var kind string
		if err := rows.Scan(&j.MonitorID, &kind, &j.TriggerSpec, &j.NextRunAt, &j.LastUpdated); err != nil {
			return nil, uperrors.NewStorageError("iter_all_jobs", err)
		}
		j.TriggerKind = schedulerjob.TriggerKind(kind)
		out = append(out, j)
	}
	return out, rows.Err()
}

// row abstracts over pgx.Row and pgx.Rows, both of which expose Scan.
type row interface {
	Scan(dest ...any) error
}

func scanMonitor(r row) (monitor.Monitor, error) {
	var m monitor.Monitor
	var pipelineJSON []byte
	var lastCheck *time.Time
	var lastStatus string

	if err := r.Scan(&m.ID, &m.Name, &m.URL, &pipelineJSON, &m.Interval, &m.Schedule, &m.Enabled, &m.Tags, &m.CreatedAt, &m.UpdatedAt, &lastCheck, &lastStatus); err != nil {
		return monitor.Monitor{}, err
	}
	if len(pipelineJSON) > 0 {
		if err := json.Unmarshal(pipelineJSON, &m.Pipeline); err != nil {
			return monitor.Monitor{}, err
		}
	}
	m.LastCheck = lastCheck
	m.LastStatus = lastStatus
	return m, nil
}
