package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, sender_id, receiver_id, type, content, file_url,
	related_session_id, is_read, is_edited, seq, created_at, updated_at`

func scanMessage(row interface{ Scan(...any) error }) (*Message, error) {
	msg := &Message{}
	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Type, &msg.Content,
		&msg.FileURL, &msg.RelatedSessionID, &msg.IsRead, &msg.IsEdited,
		&msg.Seq, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return msg, nil
}

func insertMessageTx(ctx context.Context, tx pgx.Tx, msg *Message) error {
	return tx.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, type, content, file_url, related_session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, seq, created_at, updated_at`,
		msg.SenderID, msg.ReceiverID, msg.Type, msg.Content, msg.FileURL,
		msg.RelatedSessionID).
		Scan(&msg.ID, &msg.Seq, &msg.CreatedAt, &msg.UpdatedAt)
}

func (db *PostgresDB) InsertMessage(ctx context.Context, msg *Message) error {
	return db.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, type, content, file_url, related_session_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, seq, created_at, updated_at`,
		msg.SenderID, msg.ReceiverID, msg.Type, msg.Content, msg.FileURL,
		msg.RelatedSessionID).
		Scan(&msg.ID, &msg.Seq, &msg.CreatedAt, &msg.UpdatedAt)
}

func (db *PostgresDB) GetMessage(ctx context.Context, messageID uuid.UUID) (*Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id = $1`, messageColumns)
	return scanMessage(db.pool.QueryRow(ctx, query, messageID))
}

// ListMessagesBetween returns the log between two users, oldest first.
func (db *PostgresDB) ListMessagesBetween(ctx context.Context, userID, partnerID uuid.UUID, limit int) ([]*Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT %s FROM messages
			WHERE (sender_id = $1 AND receiver_id = $2)
			   OR (sender_id = $2 AND receiver_id = $1)
			ORDER BY created_at DESC, seq DESC
			LIMIT $3
		) latest
		ORDER BY created_at ASC, seq ASC`, messageColumns, messageColumns)

	rows, err := db.pool.Query(ctx, query, userID, partnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// MarkConversationRead flips is_read on every unread message from partnerID
// to userID. A single UPDATE, so a poll that follows observes the reduced
// count.
func (db *PostgresDB) MarkConversationRead(ctx context.Context, userID, partnerID uuid.UUID) (int64, error) {
	tag, err := db.pool.Exec(ctx, `
		UPDATE messages SET is_read = TRUE, updated_at = NOW()
		WHERE receiver_id = $1 AND sender_id = $2 AND is_read = FALSE`,
		userID, partnerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *PostgresDB) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND is_read = FALSE`,
		userID).Scan(&count)
	return count, err
}

func (db *PostgresDB) UpdateMessageContent(ctx context.Context, messageID uuid.UUID, content string) error {
	tag, err := db.pool.Exec(ctx, `
		UPDATE messages SET content = $2, is_edited = TRUE, updated_at = NOW()
		WHERE id = $1`, messageID, content)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListConversations derives the per-partner summaries from the flat message
// log: latest message per partner, unread count per partner, partner profile.
// Most recently active partner first. Nothing here is persisted.
func (db *PostgresDB) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT ON (partner_id) partner_id, %s FROM (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id,
			       %s
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
		) m
		ORDER BY partner_id, created_at DESC, seq DESC`, messageColumns, messageColumns)

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ConversationSummary
	var partnerIDs []uuid.UUID
	for rows.Next() {
		var partnerID uuid.UUID
		msg := &Message{}
		err := rows.Scan(
			&partnerID, &msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Type,
			&msg.Content, &msg.FileURL, &msg.RelatedSessionID, &msg.IsRead,
			&msg.IsEdited, &msg.Seq, &msg.CreatedAt, &msg.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ConversationSummary{
			Partner:     PublicProfile{ID: partnerID},
			LastMessage: *msg,
		})
		partnerIDs = append(partnerIDs, partnerID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	unread, err := db.unreadByPartner(ctx, userID)
	if err != nil {
		return nil, err
	}
	profiles, err := db.GetPublicProfiles(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	for i := range summaries {
		partnerID := summaries[i].Partner.ID
		summaries[i].UnreadCount = unread[partnerID]
		if profile, ok := profiles[partnerID]; ok {
			summaries[i].Partner = profile
		}
	}

	// DISTINCT ON ordered by partner; present most recently active first.
	sortSummariesByRecency(summaries)
	return summaries, nil
}

func (db *PostgresDB) unreadByPartner(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT sender_id, COUNT(*) FROM messages
		WHERE receiver_id = $1 AND is_read = FALSE
		GROUP BY sender_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var senderID uuid.UUID
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, err
		}
		counts[senderID] = count
	}
	return counts, rows.Err()
}

func sortSummariesByRecency(summaries []ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Seq > b.Seq
	})
}
