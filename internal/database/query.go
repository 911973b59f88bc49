package database

import (
	"database/sql"
	"time"
)

const selectRemovals = `
	SELECT id, timestamp, action, path, name, categories, object_type, size, error_message
	FROM removals
`

// GetRecent returns the limit most recent rows, newest first.
func (h *HistoryDB) GetRecent(limit int) ([]Removal, error) {
	return h.queryRemovals(selectRemovals+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// GetByAction returns rows with the given action, newest first.
func (h *HistoryDB) GetByAction(action Action) ([]Removal, error) {
	return h.queryRemovals(selectRemovals+`
	WHERE action = ?
	ORDER BY timestamp DESC, id DESC
	`, string(action))
}

// GetByPath returns rows whose path matches a SQL LIKE pattern.
func (h *HistoryDB) GetByPath(pattern string) ([]Removal, error) {
	return h.queryRemovals(selectRemovals+`
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC
	`, pattern)
}

// GetLargest returns the limit largest measured deletions.
func (h *HistoryDB) GetLargest(limit int) ([]Removal, error) {
	return h.queryRemovals(selectRemovals+`
	WHERE action = 'DELETE' AND size IS NOT NULL
	ORDER BY size DESC, id DESC
	LIMIT ?
	`, limit)
}

// Stats aggregates history over a period.
type Stats struct {
	Deleted         int              `json:"deleted"`
	DryRun          int              `json:"dry_run"`
	Skipped         int              `json:"skipped"`
	Failed          int              `json:"failed"`
	BytesReclaimed  int64            `json:"bytes_reclaimed"`
	ByCategory      map[string]int   `json:"by_category"`
	BytesByCategory map[string]int64 `json:"bytes_by_category"`
	StartDate       time.Time        `json:"start_date"`
	EndDate         time.Time        `json:"end_date"`
}

// GetStats summarizes the last days of history.
func (h *HistoryDB) GetStats(days int) (*Stats, error) {
	end := h.now().UTC()
	start := end.AddDate(0, 0, -days)

	stats := &Stats{
		ByCategory:      make(map[string]int),
		BytesByCategory: make(map[string]int64),
		StartDate:       start,
		EndDate:         end,
	}

	err := h.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
			COUNT(CASE WHEN action = 'DRY_RUN' THEN 1 END),
			COUNT(CASE WHEN action = 'SKIP' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END),
			COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size END), 0)
		FROM removals
		WHERE timestamp >= ?
	`, start).Scan(&stats.Deleted, &stats.DryRun, &stats.Skipped, &stats.Failed, &stats.BytesReclaimed)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(`
		SELECT categories, COUNT(*), COALESCE(SUM(size), 0)
		FROM removals
		WHERE action = 'DELETE' AND timestamp >= ?
		GROUP BY categories
	`, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			categories string
			count      int
			bytes      int64
		)
		if err := rows.Scan(&categories, &count, &bytes); err != nil {
			return nil, err
		}
		stats.ByCategory[categories] = count
		stats.BytesByCategory[categories] = bytes
	}

	return stats, rows.Err()
}

// DeleteOlderThan removes rows older than days and returns how many went.
func (h *HistoryDB) DeleteOlderThan(days int) (int64, error) {
	cutoff := h.now().UTC().AddDate(0, 0, -days)

	result, err := h.db.Exec(`DELETE FROM removals WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (h *HistoryDB) queryRemovals(query string, args ...any) ([]Removal, error) {
	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Removal
	for rows.Next() {
		var (
			r      Removal
			action string
			size   sql.NullInt64
			errMsg sql.NullString
		)
		err := rows.Scan(
			&r.ID, &r.Timestamp, &action, &r.Path, &r.Name,
			&r.Categories, &r.ObjectType, &size, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.Action = Action(action)
		if size.Valid {
			s := size.Int64
			r.Size = &s
		}
		if errMsg.Valid {
			r.ErrorMessage = errMsg.String
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
