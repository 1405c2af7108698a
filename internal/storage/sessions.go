package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, requester_id, provider_id, skill, scheduled_date,
	scheduled_time, status, requester_confirmed, provider_confirmed,
	created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	sess := &Session{}
	err := row.Scan(
		&sess.ID, &sess.RequesterID, &sess.ProviderID, &sess.Skill,
		&sess.Date, &sess.Time, &sess.Status, &sess.RequesterConfirmed,
		&sess.ProviderConfirmed, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return sess, nil
}

// CreateSessionWithOffer inserts the session and its barter_offer message in
// one transaction so the chat log never references a session that was not
// committed.
func (db *PostgresDB) CreateSessionWithOffer(ctx context.Context, sess *Session, offer *Message) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO sessions (requester_id, provider_id, skill, scheduled_date, scheduled_time,
		                      status, requester_confirmed, provider_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		sess.RequesterID, sess.ProviderID, sess.Skill, sess.Date, sess.Time,
		sess.Status, sess.RequesterConfirmed, sess.ProviderConfirmed).
		Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return err
	}

	offer.RelatedSessionID = &sess.ID
	if err := insertMessageTx(ctx, tx, offer); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *PostgresDB) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1`, sessionColumns)
	return scanSession(db.pool.QueryRow(ctx, query, sessionID))
}

// TransitionSession applies the new status and confirmation flags carried by
// sess, guarded by the set of statuses the transition is legal from. The
// guard and the barter_status message share a transaction; a concurrent
// transition that got there first surfaces as ErrStaleTransition.
func (db *PostgresDB) TransitionSession(ctx context.Context, sess *Session, fromStatuses []string, statusMsg *Message) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE sessions
		SET status = $2, requester_confirmed = $3, provider_confirmed = $4, updated_at = NOW()
		WHERE id = $1 AND status = ANY($5)
		RETURNING updated_at`,
		sess.ID, sess.Status, sess.RequesterConfirmed, sess.ProviderConfirmed,
		fromStatuses).Scan(&sess.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrStaleTransition
	}
	if err != nil {
		return err
	}

	statusMsg.RelatedSessionID = &sess.ID
	if err := insertMessageTx(ctx, tx, statusMsg); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CompleteSession is TransitionSession plus the sessions_count bump for both
// participants, all in one transaction.
func (db *PostgresDB) CompleteSession(ctx context.Context, sess *Session, statusMsg *Message) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		UPDATE sessions
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING updated_at`,
		sess.ID, SessionCompleted, SessionActive).Scan(&sess.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrStaleTransition
	}
	if err != nil {
		return err
	}
	sess.Status = SessionCompleted

	_, err = tx.Exec(ctx, `
		UPDATE users SET sessions_count = sessions_count + 1, updated_at = NOW()
		WHERE id = ANY($1)`,
		[]uuid.UUID{sess.RequesterID, sess.ProviderID})
	if err != nil {
		return err
	}

	statusMsg.RelatedSessionID = &sess.ID
	if err := insertMessageTx(ctx, tx, statusMsg); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *PostgresDB) ListUserSessions(ctx context.Context, userID uuid.UUID, limit int) ([]*Session, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM sessions
		WHERE requester_id = $1 OR provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, sessionColumns)

	rows, err := db.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
