package storage

import (
	"context"

	"github.com/google/uuid"
)

// CreateCommunity inserts the community and enrolls the creator as its first
// member.
func (db *PostgresDB) CreateCommunity(ctx context.Context, community *Community) error {
	tx, err := db.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO communities (name, description, creator_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		community.Name, community.Description, community.CreatorID).
		Scan(&community.ID, &community.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`,
		community.ID, community.CreatorID)
	if err != nil {
		return err
	}
	community.MemberCount = 1

	return tx.Commit(ctx)
}

func (db *PostgresDB) GetCommunity(ctx context.Context, communityID uuid.UUID) (*Community, error) {
	community := &Community{}
	err := db.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.description, c.creator_id, c.created_at,
		       (SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id)
		FROM communities c WHERE c.id = $1`, communityID).
		Scan(&community.ID, &community.Name, &community.Description,
			&community.CreatorID, &community.CreatedAt, &community.MemberCount)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return community, nil
}

func (db *PostgresDB) ListCommunities(ctx context.Context, limit int) ([]*Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.creator_id, c.created_at,
		       (SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id)
		FROM communities c
		ORDER BY c.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var communities []*Community
	for rows.Next() {
		community := &Community{}
		err := rows.Scan(
			&community.ID, &community.Name, &community.Description,
			&community.CreatorID, &community.CreatedAt, &community.MemberCount,
		)
		if err != nil {
			return nil, err
		}
		communities = append(communities, community)
	}
	return communities, rows.Err()
}

func (db *PostgresDB) JoinCommunity(ctx context.Context, communityID, userID uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`,
		communityID, userID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *PostgresDB) LeaveCommunity(ctx context.Context, communityID, userID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `
		DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
