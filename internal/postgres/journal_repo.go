package postgres

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/bowling-server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// JournalRepository stores room events for inspection. Nothing is read back into
// live rooms.
type JournalRepository struct {
	q querier
}

func NewJournalRepository(q querier) *JournalRepository {
	return &JournalRepository{q: q}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, queryCreateSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *JournalRepository) Save(ctx context.Context, e domain.RoomEvent) error {
	var id int64
	err := r.q.QueryRow(ctx, queryInsertEvent,
		string(e.RoomCode),
		string(e.Kind),
		string(e.ConnID),
		e.PlayerName,
		e.Round,
		string(e.TurnID),
		e.At,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert room event: %w", err)
	}
	return nil
}

// History returns events of a room in insertion order, starting after the cursor.
// next is empty when the page was not full.
func (r *JournalRepository) History(ctx context.Context, code domain.RoomCode, after string, limit int) ([]domain.RoomEvent, string, error) {
	limit = clampLimit(limit)
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	var afterID any
	if cur != nil {
		afterID = cur.ID
	}

	rows, err := r.q.Query(ctx, queryEventHistory, string(code), afterID, limit)
	if err != nil {
		return nil, "", fmt.Errorf("query room events: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, "", fmt.Errorf("scan room events: %w", err)
	}

	var next string
	if len(out) == limit {
		if c, e := EncodeCursor(Cursor{ID: out[len(out)-1].ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}

func scanEvent(row pgx.CollectableRow) (domain.RoomEvent, error) {
	var (
		e                    domain.RoomEvent
		code, kind, conn, tn string
	)
	err := row.Scan(&e.ID, &code, &kind, &conn, &e.PlayerName, &e.Round, &tn, &e.At)
	if err != nil {
		return domain.RoomEvent{}, err
	}
	e.RoomCode = domain.RoomCode(code)
	e.Kind = domain.EventKind(kind)
	e.ConnID = domain.ConnID(conn)
	e.TurnID = domain.ConnID(tn)
	return e, nil
}
