package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestEnsureUser(t *testing.T) {
	st, mock := newMockStore(t)

	query := regexp.QuoteMeta(`
INSERT INTO users (email) VALUES ($1)
ON CONFLICT (email) DO UPDATE SET email=EXCLUDED.email
RETURNING id
`)
	mock.ExpectQuery(query).
		WithArgs("dev@minutelab.local").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("user-1"))

	id, err := st.EnsureUser(context.Background(), "dev@minutelab.local")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if id != "user-1" {
		t.Fatalf("unexpected id %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateBlockAppendsPosition(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()
	content := json.RawMessage(`{"title":"Trip planning"}`)

	query := regexp.QuoteMeta(`
INSERT INTO blocks (minute_id, kind, position, content)
VALUES ($1, $2, (SELECT COALESCE(MAX(position),-1)+1 FROM blocks WHERE minute_id=$1), $3)
RETURNING id, minute_id, kind, position, content, created_at, updated_at
`)
	mock.ExpectQuery(query).
		WithArgs("min-1", BlockKindConversation, []byte(content)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "minute_id", "kind", "position", "content", "created_at", "updated_at",
		}).AddRow("blk-1", "min-1", BlockKindConversation, 2, []byte(content), now, now))

	rec, err := st.CreateBlock(context.Background(), "min-1", BlockKindConversation, content)
	if err != nil {
		t.Fatalf("CreateBlock: %v", err)
	}
	if rec.ID != "blk-1" || rec.Position != 2 {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetMinuteNotFound(t *testing.T) {
	st, mock := newMockStore(t)

	query := regexp.QuoteMeta(`
SELECT id, user_id, title, created_at, updated_at
FROM minutes
WHERE id=$1 AND user_id=$2
`)
	mock.ExpectQuery(query).
		WithArgs("min-404", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}))

	_, ok, err := st.GetMinute(context.Background(), "min-404", "user-1")
	if err != nil {
		t.Fatalf("GetMinute: %v", err)
	}
	if ok {
		t.Fatal("expected not found")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteBlockRequiresRow(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM blocks WHERE id=$1`)).
		WithArgs("blk-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.DeleteBlock(context.Background(), "blk-404"); err == nil {
		t.Fatal("expected error when no row deleted")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListBlocksOrdering(t *testing.T) {
	st, mock := newMockStore(t)
	now := time.Now()

	query := regexp.QuoteMeta(`
SELECT id, minute_id, kind, position, content, created_at, updated_at
FROM blocks
WHERE minute_id=$1
ORDER BY position ASC
`)
	mock.ExpectQuery(query).
		WithArgs("min-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "minute_id", "kind", "position", "content", "created_at", "updated_at",
		}).
			AddRow("blk-1", "min-1", BlockKindText, 0, []byte(`{}`), now, now).
			AddRow("blk-2", "min-1", BlockKindLink, 1, []byte(`{}`), now, now))

	blocks, err := st.ListBlocks(context.Background(), "min-1")
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Position != 0 || blocks[1].Position != 1 {
		t.Fatalf("unexpected blocks: %#v", blocks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
