package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/backend/internal/model"
)

func setupRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mockDB.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewSQLiteRepository(db), mockDB
}

func TestSQLiteRepository_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("u1", "a@example.com", "hash", now, now)
		mockDB.ExpectQuery("SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email").
			WithArgs("a@example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("Not found", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectQuery("SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email").
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}))

		_, err := repo.GetUserByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteRepository_UpdateUserPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectExec("UPDATE users SET password_hash").
			WithArgs("newhash", sqlmock.AnyArg(), "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateUserPassword(ctx, "u1", "newhash"))
	})

	t.Run("Unknown user", func(t *testing.T) {
		repo, mockDB := setupRepo(t)
		mockDB.ExpectExec("UPDATE users SET password_hash").
			WithArgs("newhash", sqlmock.AnyArg(), "ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateUserPassword(ctx, "ghost", "newhash"), ErrNotFound)
	})
}

func TestSQLiteRepository_GetConversation(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Scoped to the owner", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		rows := sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}).
			AddRow("conv1", "u1", "Trip planning", now, now)
		mockDB.ExpectQuery("SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id").
			WithArgs("conv1", "u1").
			WillReturnRows(rows)

		conv, err := repo.GetConversation(ctx, "conv1", "u1")
		require.NoError(t, err)
		assert.Equal(t, "Trip planning", conv.Title)
	})

	t.Run("Someone else's conversation reads as not found", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectQuery("SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id").
			WithArgs("conv1", "intruder").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "created_at", "updated_at"}))

		_, err := repo.GetConversation(ctx, "conv1", "intruder")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSQLiteRepository_AddMessage(t *testing.T) {
	ctx := context.Background()
	modelName := "deepseek-v2:16b"
	msg := &model.Message{
		ID:             "msg1",
		ConversationID: "conv1",
		Role:           model.RoleAssistant,
		Content:        "Hello",
		Model:          &modelName,
		CreatedAt:      time.Now().UTC(),
	}

	t.Run("Insert and timestamp bump share a transaction", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO messages").
			WithArgs(msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Model, msg.CreatedAt).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mockDB.ExpectExec("UPDATE conversations SET updated_at").
			WithArgs(sqlmock.AnyArg(), "conv1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.ExpectCommit()

		assert.NoError(t, repo.AddMessage(ctx, msg))
	})

	t.Run("Insert failure rolls back", func(t *testing.T) {
		repo, mockDB := setupRepo(t)

		mockDB.ExpectBegin()
		mockDB.ExpectExec("INSERT INTO messages").
			WillReturnError(assert.AnError)
		mockDB.ExpectRollback()

		assert.Error(t, repo.AddMessage(ctx, msg))
	})
}

func TestSQLiteRepository_GetMessages(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	repo, mockDB := setupRepo(t)

	rows := sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "model", "created_at"}).
		AddRow("m1", "conv1", "user", "hi", nil, now).
		AddRow("m2", "conv1", "assistant", "hello", "llama3.2", now.Add(time.Second))
	mockDB.ExpectQuery("SELECT id, conversation_id, role, content, model, created_at").
		WithArgs("conv1", DefaultMessageLimit).
		WillReturnRows(rows)

	messages, err := repo.GetMessages(ctx, "conv1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	// A null model column stays a nil pointer.
	assert.Nil(t, messages[0].Model)
	require.NotNil(t, messages[1].Model)
	assert.Equal(t, "llama3.2", *messages[1].Model)
}

func TestSQLiteRepository_DeleteConversationsOlderThan(t *testing.T) {
	ctx := context.Background()
	repo, mockDB := setupRepo(t)

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	mockDB.ExpectExec("DELETE FROM conversations WHERE updated_at").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	removed, err := repo.DeleteConversationsOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)
}
