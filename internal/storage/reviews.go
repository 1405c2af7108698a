package storage

import (
	"context"

	"github.com/google/uuid"
)

// CreateReview inserts the review and recomputes the subject's aggregate
// rating in the same transaction, so reputation never drifts from the review
// rows it is derived from.
func (db *PostgresDB) CreateReview(ctx context.Context, review *Review) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (session_id, author_id, subject_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		review.SessionID, review.AuthorID, review.SubjectID, review.Rating,
		review.Comment).
		Scan(&review.ID, &review.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users
		SET rating = (SELECT AVG(rating) FROM reviews WHERE subject_id = $1),
		    reviews_count = (SELECT COUNT(*) FROM reviews WHERE subject_id = $1),
		    updated_at = NOW()
		WHERE id = $1`, review.SubjectID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *PostgresDB) ListReviewsForUser(ctx context.Context, subjectID uuid.UUID, limit int) ([]*Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx, `
		SELECT id, session_id, author_id, subject_id, rating, comment, created_at
		FROM reviews
		WHERE subject_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, subjectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		review := &Review{}
		err := rows.Scan(
			&review.ID, &review.SessionID, &review.AuthorID,
			&review.SubjectID, &review.Rating, &review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
