package failsink_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	null "github.com/guregu/null/v6"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/event"
	"github.com/next-trace/scg-user-event-relay/contract/stream"
	"github.com/next-trace/scg-user-event-relay/failsink"
)

var errExhausted = errors.New("nats: timeout")

func updateMsg() event.Message {
	return event.Message{
		SourceKind: event.SourceUserEvent,
		Operation:  event.OperationUpdate,
		SubjectID:  "u1",
		UpdatedFields: &event.UpdatedFields{
			Email: null.StringFrom("a@b.c"),
		},
	}
}

func TestLog_WritesErrorLine(t *testing.T) {
	var buf bytes.Buffer
	s := failsink.NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, s.Sink(t.Context(), updateMsg(), errExhausted))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"subject_id":"u1"`)
	assert.Contains(t, out, "nats: timeout")
}

func TestFile_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failed.jsonl")

	s, err := failsink.OpenFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Sink(t.Context(), updateMsg(), errExhausted))
	require.NoError(t, s.Sink(t.Context(), event.Message{
		SourceKind: event.SourceAdminEvent, Operation: event.OperationDelete, SubjectID: "r9",
	}, errExhausted))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	var recs []failsink.Record

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r failsink.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		recs = append(recs, r)
	}

	require.NoError(t, sc.Err())
	require.Len(t, recs, 2)
	assert.Equal(t, "u1", recs[0].Message.SubjectID)
	assert.Equal(t, "a@b.c", recs[0].Message.UpdatedFields.Email.String)
	assert.Equal(t, "nats: timeout", recs[0].Cause)
	assert.False(t, recs[0].FailedAt.IsZero())
	assert.Equal(t, event.OperationDelete, recs[1].Message.Operation)
}

func TestFile_SinkAfterCloseFails(t *testing.T) {
	s, err := failsink.OpenFile(filepath.Join(t.TempDir(), "failed.jsonl"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err = s.Sink(t.Context(), updateMsg(), errExhausted)
	require.ErrorIs(t, err, berr.ErrNotConnected)
}

func TestFile_OpenMissingDirFails(t *testing.T) {
	_, err := failsink.OpenFile(filepath.Join(t.TempDir(), "missing", "failed.jsonl"))
	require.ErrorIs(t, err, berr.ErrSinkFailed)
}

func TestRedis_PushesRecordToList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := failsink.NewRedis(client, "")
	require.NoError(t, s.Sink(t.Context(), updateMsg(), errExhausted))
	require.NoError(t, s.Sink(t.Context(), updateMsg(), errExhausted))

	items, err := mr.List(failsink.DefaultRedisKey)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var r failsink.Record
	require.NoError(t, json.Unmarshal([]byte(items[0]), &r))
	assert.Equal(t, "u1", r.Message.SubjectID)
	assert.Equal(t, "nats: timeout", r.Cause)
}

func TestRedis_ServerErrorIsSinkFailed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	mr.SetError("READONLY replica")

	err := failsink.NewRedis(client, "failed").Sink(t.Context(), updateMsg(), errExhausted)
	require.ErrorIs(t, err, berr.ErrSinkFailed)
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgres_InsertsRow(t *testing.T) {
	db := &fakeExecer{}
	s := failsink.NewPostgres(db, "")

	require.NoError(t, s.Sink(t.Context(), updateMsg(), errExhausted))
	require.Len(t, db.calls, 1)

	c := db.calls[0]
	assert.Contains(t, c.sql, `INSERT INTO "relay_failed_events"`)
	require.Len(t, c.args, 6)
	assert.Equal(t, "USER_EVENT", c.args[0])
	assert.Equal(t, "UPDATE", c.args[1])
	assert.Equal(t, "u1", c.args[2])
	assert.JSONEq(t,
		`{"sourceKind":"USER_EVENT","operation":"UPDATE","subjectId":"u1","updatedFields":{"firstName":null,"lastName":null,"email":"a@b.c"}}`,
		string(c.args[3].([]byte)))
	assert.Equal(t, "nats: timeout", c.args[4])
}

func TestPostgres_EnsureTableQuotesName(t *testing.T) {
	db := &fakeExecer{}
	s := failsink.NewPostgres(db, "failed events")

	require.NoError(t, s.EnsureTable(t.Context()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, `CREATE TABLE IF NOT EXISTS "failed events"`)
}

func TestPostgres_ExecErrorIsSinkFailed(t *testing.T) {
	db := &fakeExecer{err: errors.New("conn closed")}

	err := failsink.NewPostgres(db, "t").Sink(t.Context(), updateMsg(), errExhausted)
	require.ErrorIs(t, err, berr.ErrSinkFailed)
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	var got []string

	ok := stream.FailureSinkFunc(func(_ context.Context, msg event.Message, _ error) error {
		got = append(got, msg.SubjectID)
		return nil
	})
	bad := stream.FailureSinkFunc(func(context.Context, event.Message, error) error {
		return berr.ErrSinkFailed
	})

	err := failsink.Multi(ok, nil, bad, ok).Sink(t.Context(), updateMsg(), errExhausted)
	require.ErrorIs(t, err, berr.ErrSinkFailed)
	assert.Equal(t, []string{"u1", "u1"}, got)
}
