package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatMessageListThreadWithoutLimitReturnsEverything(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatMessageRepository(db)
	ws, user := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{"id", "workspace_id", "thread_user_id", "message_type", "text"}).
		AddRow(1, ws.String(), user.String(), "user", "first").
		AddRow(2, ws.String(), user.String(), "assistant", "second")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_messages" WHERE workspace_id = $1 AND thread_user_id = $2 ORDER BY id ASC`)).
		WithArgs(ws, user).
		WillReturnRows(rows)

	messages, err := repo.ListThread(context.Background(), ws, &user, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatMessageListThreadWithLimitKeepsNewestAscending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatMessageRepository(db)
	ws := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "workspace_id", "message_type", "text"}).
		AddRow(9, ws.String(), "assistant", "newest").
		AddRow(8, ws.String(), "user", "older")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "chat_messages" WHERE workspace_id = $1 ORDER BY id DESC LIMIT`)).
		WillReturnRows(rows)

	messages, err := repo.ListThread(context.Background(), ws, nil, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "older", messages[0].Text)
	assert.Equal(t, "newest", messages[1].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}
