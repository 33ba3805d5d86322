package failsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// DefaultPostgresTable stores failures when no table is configured.
const DefaultPostgresTable = "relay_failed_events"

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres inserts each failure as a row; the payload column holds the wire message.
type Postgres struct {
	db    Execer
	table string
	now   func() time.Time
}

func NewPostgres(db Execer, table string) *Postgres {
	if table == "" {
		table = DefaultPostgresTable
	}

	return &Postgres{db: db, table: pgx.Identifier{table}.Sanitize(), now: time.Now}
}

// ConnectPostgres opens a pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres pool: %w", berr.ErrConnectFailed, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: postgres ping: %w", berr.ErrConnectFailed, err)
	}

	return pool, nil
}

// EnsureTable creates the failure table if it does not exist.
func (s *Postgres) EnsureTable(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	id          BIGSERIAL PRIMARY KEY,
	source_kind TEXT        NOT NULL,
	operation   TEXT        NOT NULL,
	subject_id  TEXT        NOT NULL,
	payload     JSONB       NOT NULL,
	cause       TEXT        NOT NULL,
	failed_at   TIMESTAMPTZ NOT NULL
)`

	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres sink ensure table: %w", errors.Join(berr.ErrSinkFailed, err))
	}

	return nil
}

func (s *Postgres) Sink(ctx context.Context, msg event.Message, cause error) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(berr.ErrSerializationFailed, err)
	}

	rec := newRecord(s.now(), msg, cause)

	_, err = s.db.Exec(ctx,
		`INSERT INTO `+s.table+` (source_kind, operation, subject_id, payload, cause, failed_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		string(msg.SourceKind), string(msg.Operation), msg.SubjectID, payload, rec.Cause, rec.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres sink insert: %w", errors.Join(berr.ErrSinkFailed, err))
	}

	return nil
}
