package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adesina-io/kudiflow/internal/model"
)

const patternCacheTTL = 5 * time.Minute

// UpsertPattern records one observation of a description-to-category mapping.
// Repeat observations of the same category increment the occurrence count and
// grow confidence atomically in SQL; a different category supersedes the old
// row and starts a fresh one. Old rows are never deleted.
func (s *SQLiteStorage) UpsertPattern(ctx context.Context, scopeID, pattern, category string) (*model.ClassificationPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(scopeID, "scopeID"); err != nil {
		return nil, err
	}
	if err := validateString(pattern, "pattern"); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	var existingCategory string
	err = tx.QueryRowContext(ctx,
		`SELECT id, category FROM patterns
		 WHERE scope_id = ? AND pattern = ? AND superseded = 0`,
		scopeID, pattern).Scan(&id, &existingCategory)

	now := time.Now()

	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err = s.insertPattern(ctx, tx, scopeID, pattern, category, now)
		if err != nil {
			return nil, err
		}

	case err != nil:
		return nil, fmt.Errorf("failed to look up pattern: %w", err)

	case existingCategory == category:
		// occurrences is read pre-increment, so the curve n/(n+2) becomes
		// (occurrences+1)/(occurrences+3) in one atomic statement.
		_, err = tx.ExecContext(ctx,
			`UPDATE patterns SET
				occurrences = occurrences + 1,
				confidence = CAST(occurrences + 1 AS REAL) / (occurrences + 3),
				last_used_at = ?
			 WHERE id = ?`, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to reinforce pattern: %w", err)
		}

	default:
		// Category changed: retire the old mapping and restart the evidence
		// count for the new one.
		_, err = tx.ExecContext(ctx,
			"UPDATE patterns SET superseded = 1 WHERE id = ?", id)
		if err != nil {
			return nil, fmt.Errorf("failed to supersede pattern: %w", err)
		}
		id, err = s.insertPattern(ctx, tx, scopeID, pattern, category, now)
		if err != nil {
			return nil, err
		}
	}

	result, err := getPatternTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pattern upsert: %w", err)
	}

	s.invalidatePatternCache(scopeID)
	return result, nil
}

func (s *SQLiteStorage) insertPattern(ctx context.Context, tx *sql.Tx, scopeID, pattern, category string, now time.Time) (int64, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO patterns (scope_id, pattern, category, occurrences, confidence, created_at, last_used_at)
		 VALUES (?, ?, ?, 1, ?, ?, ?)`,
		scopeID, pattern, category, model.PatternConfidence(1), now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert pattern: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get pattern id: %w", err)
	}
	return id, nil
}

func getPatternTx(ctx context.Context, tx *sql.Tx, id int64) (*model.ClassificationPattern, error) {
	var p model.ClassificationPattern
	err := tx.QueryRowContext(ctx,
		`SELECT id, scope_id, pattern, category, occurrences, confidence,
			superseded, created_at, last_used_at
		 FROM patterns WHERE id = ?`, id).Scan(
		&p.ID, &p.ScopeID, &p.Pattern, &p.Category, &p.Occurrences,
		&p.Confidence, &p.Superseded, &p.CreatedAt, &p.LastUsedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern: %w", err)
	}
	return &p, nil
}

// GetPatternsByScope returns the active patterns for a scope, cached briefly
// since the cascade consults them for every transaction in a batch.
func (s *SQLiteStorage) GetPatternsByScope(ctx context.Context, scopeID string) ([]model.ClassificationPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(scopeID, "scopeID"); err != nil {
		return nil, err
	}

	s.cacheMutex.RLock()
	if patterns, ok := s.patternCache[scopeID]; ok && time.Now().Before(s.cacheExpiry) {
		s.cacheMutex.RUnlock()
		return patterns, nil
	}
	s.cacheMutex.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scope_id, pattern, category, occurrences, confidence,
			superseded, created_at, last_used_at
		 FROM patterns
		 WHERE scope_id = ? AND superseded = 0
		 ORDER BY confidence DESC, occurrences DESC`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []model.ClassificationPattern
	for rows.Next() {
		var p model.ClassificationPattern
		err := rows.Scan(&p.ID, &p.ScopeID, &p.Pattern, &p.Category,
			&p.Occurrences, &p.Confidence, &p.Superseded, &p.CreatedAt, &p.LastUsedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}

	s.cacheMutex.Lock()
	s.patternCache[scopeID] = patterns
	s.cacheExpiry = time.Now().Add(patternCacheTTL)
	s.cacheMutex.Unlock()

	return patterns, nil
}

// TouchPattern updates a pattern's last-used timestamp after a cascade hit.
func (s *SQLiteStorage) TouchPattern(ctx context.Context, id int64, usedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE patterns SET last_used_at = ? WHERE id = ?", usedAt, id)
	if err != nil {
		return fmt.Errorf("failed to touch pattern: %w", err)
	}
	return nil
}
