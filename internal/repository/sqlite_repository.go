package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatrelay/backend/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := "INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *sqliteRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := "SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *sqliteRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	query := "SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, userID))
}

func (r *sqliteRepository) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *sqliteRepository) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	query := "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (r *sqliteRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	query := "INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	return err
}

func (r *sqliteRepository) GetConversation(ctx context.Context, conversationID, userID string) (*model.Conversation, error) {
	query := "SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?"
	row := r.db.QueryRowContext(ctx, query, conversationID, userID)
	var conv model.Conversation
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *sqliteRepository) GetConversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	query := "SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}

func (r *sqliteRepository) UpdateConversationTitle(ctx context.Context, conversationID, userID, newTitle string) error {
	query := "UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, newTitle, time.Now().UTC(), conversationID, userID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (r *sqliteRepository) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	query := "DELETE FROM conversations WHERE id = ? AND user_id = ?"
	result, err := r.db.ExecContext(ctx, query, conversationID, userID)
	if err != nil {
		return err
	}
	return requireRows(result)
}

// AddMessage inserts the message and bumps the owning conversation's
// updated_at inside one transaction, so history order and retention both see
// a consistent timestamp.
func (r *sqliteRepository) AddMessage(ctx context.Context, message *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := "INSERT INTO messages (id, conversation_id, role, content, model, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	_, err = tx.ExecContext(ctx, insertQuery,
		message.ID, message.ConversationID, message.Role, message.Content, message.Model, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}

	updateQuery := "UPDATE conversations SET updated_at = ? WHERE id = ?"
	if _, err := tx.ExecContext(ctx, updateQuery, time.Now().UTC(), message.ConversationID); err != nil {
		return fmt.Errorf("could not update conversation timestamp: %w", err)
	}

	return tx.Commit()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	query := `
		SELECT id, conversation_id, role, content, model, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var modelName sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &modelName, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if modelName.Valid {
			msg.Model = &modelName.String
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) DeleteConversationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := "DELETE FROM conversations WHERE updated_at < ?"
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func requireRows(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
