package postgres

const queryCreateSchema = `
CREATE TABLE IF NOT EXISTS room_events (
	id          BIGSERIAL PRIMARY KEY,
	room_code   TEXT        NOT NULL,
	kind        TEXT        NOT NULL,
	conn_id     TEXT        NOT NULL DEFAULT '',
	player_name TEXT        NOT NULL DEFAULT '',
	round       INTEGER     NOT NULL DEFAULT 0,
	turn_id     TEXT        NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS room_events_room_code_id_idx ON room_events (room_code, id);
`

const queryInsertEvent = `
	INSERT INTO room_events (room_code, kind, conn_id, player_name, round, turn_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

// Room codes are reused once a room is gone, so a page may span several room lifetimes.
const queryEventHistory = `
	SELECT id, room_code, kind, conn_id, player_name, round, turn_id, created_at
	FROM room_events
	WHERE room_code = $1
	  AND ($2::bigint IS NULL OR id > $2)
	ORDER BY id ASC
	LIMIT $3`
