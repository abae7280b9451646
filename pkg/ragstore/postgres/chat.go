package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

// SaveTurn persists one completed user/assistant exchange for the tenant and
// returns its id. The timestamp is assigned by the database.
func (s *Store) SaveTurn(ctx context.Context, tenantID int64, userMessage, aiMessage string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_history (user_id, user_message, ai_message)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		tenantID, userMessage, aiMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save turn: %w", err)
	}
	return id, nil
}

// ListTurns returns up to limit of the tenant's most recent turns, newest
// first. Turns sharing a timestamp are ordered by descending id.
func (s *Store) ListTurns(ctx context.Context, tenantID int64, limit int) ([]ragstore.ChatTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, user_message, ai_message, timestamp
		 FROM chat_history
		 WHERE user_id = $1
		 ORDER BY timestamp DESC, id DESC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	turns, err := pgx.CollectRows(rows, scanChatTurn)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// GetTurn fetches a single turn by id, scoped to the tenant. A turn that
// exists but belongs to another tenant is reported as [ragstore.ErrNotFound],
// same as a turn that does not exist.
func (s *Store) GetTurn(ctx context.Context, turnID, tenantID int64) (*ragstore.ChatTurn, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, user_message, ai_message, timestamp
		 FROM chat_history
		 WHERE id = $1 AND user_id = $2`,
		turnID, tenantID,
	)

	var t ragstore.ChatTurn
	err := row.Scan(&t.ID, &t.TenantID, &t.UserMessage, &t.AIMessage, &t.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get turn %d: %w", turnID, ragstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get turn %d: %w", turnID, err)
	}
	return &t, nil
}

func scanChatTurn(row pgx.CollectableRow) (ragstore.ChatTurn, error) {
	var t ragstore.ChatTurn
	err := row.Scan(&t.ID, &t.TenantID, &t.UserMessage, &t.AIMessage, &t.Timestamp)
	return t, err
}
