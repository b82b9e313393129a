package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

// EnsureSchema creates the journal table when it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS lookup_journal (
			lookup_id   UUID PRIMARY KEY,
			trigger     TEXT NOT NULL,
			region      TEXT NOT NULL DEFAULT '',
			sub_region  TEXT NOT NULL DEFAULT '',
			day_code    TEXT NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			outcome     TEXT NOT NULL,
			error_kind  TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			started_at  TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL
		);
	`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create lookup journal table: %w", err)
	}

	return nil
}

// RecordLookup appends one finished lookup cycle to the journal.
func (r *Repository) RecordLookup(ctx context.Context, entry models.LookupEntry) error {
	query := `
		INSERT INTO lookup_journal (
			lookup_id, trigger, region, sub_region, day_code, record_count,
			outcome, error_kind, error_message, started_at, duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		string(entry.Trigger),
		entry.Region,
		entry.SubRegion,
		string(entry.Day),
		entry.Count,
		string(entry.Outcome),
		string(entry.ErrorKind),
		entry.Error,
		entry.StartedAt,
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lookup journal entry: %w", err)
	}

	r.log.DebugContext(ctx, "Lookup recorded in journal", "id", entry.ID, "outcome", entry.Outcome)

	return nil
}

// RecentLookups returns the newest journal entries first.
func (r *Repository) RecentLookups(ctx context.Context, limit int) ([]models.LookupEntry, error) {
	query := `
		SELECT lookup_id::text, trigger, region, sub_region, day_code, record_count,
			outcome, error_kind, error_message, started_at, duration_ms
		FROM lookup_journal
		ORDER BY started_at DESC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup journal: %w", err)
	}
	defer rows.Close()

	entries := []models.LookupEntry{}
	for rows.Next() {
		var (
			entry      models.LookupEntry
			trigger    string
			day        string
			outcome    string
			errorKind  string
			durationMS int64
		)
		if errScan := rows.Scan(
			&entry.ID, &trigger, &entry.Region, &entry.SubRegion, &day, &entry.Count,
			&outcome, &errorKind, &entry.Error, &entry.StartedAt, &durationMS,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan lookup journal entry: %w", errScan)
		}

		entry.Trigger = models.Trigger(trigger)
		entry.Day = models.DayCode(day)
		entry.Outcome = models.Outcome(outcome)
		entry.ErrorKind = models.ErrorKind(errorKind)
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return entries, nil
}
