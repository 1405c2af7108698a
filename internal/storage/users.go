package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const userColumns = `id, name, email, bio, university, city, role, avatar_url,
	teach_skills, learn_skills, rating, reviews_count, sessions_count,
	blocked, report_count, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Bio, &user.University,
		&user.City, &user.Role, &user.AvatarURL, &user.TeachSkills,
		&user.LearnSkills, &user.Rating, &user.ReviewsCount,
		&user.SessionsCount, &user.Blocked, &user.ReportCount,
		&user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return user, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, bio, university, city, role, avatar_url, teach_skills, learn_skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := db.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.Bio, user.University, user.City,
		user.Role, user.AvatarURL, user.TeachSkills, user.LearnSkills).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *PostgresDB) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(db.pool.QueryRow(ctx, query, userID))
}

func (db *PostgresDB) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, bio = $3, university = $4, city = $5, avatar_url = $6,
		    teach_skills = $7, learn_skills = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := db.pool.QueryRow(ctx, query,
		user.ID, user.Name, user.Bio, user.University, user.City,
		user.AvatarURL, user.TeachSkills, user.LearnSkills).
		Scan(&user.UpdatedAt)
	return notFoundIfNoRows(err)
}

type UserFilter struct {
	Skill  string // matched against teach_skills
	City   string
	Role   string
	Limit  int
	Offset int
}

func (db *PostgresDB) SearchUsers(ctx context.Context, filter UserFilter) ([]*User, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE NOT blocked
		  AND ($1 = '' OR $1 = ANY(teach_skills))
		  AND ($2 = '' OR city ILIKE $2)
		  AND ($3 = '' OR role = $3)
		ORDER BY rating DESC, reviews_count DESC
		LIMIT $4 OFFSET $5`, userColumns)

	rows, err := db.pool.Query(ctx, query,
		filter.Skill, filter.City, filter.Role, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListMatchCandidates returns unblocked users whose skill sets overlap the
// given ones in either direction.
func (db *PostgresDB) ListMatchCandidates(ctx context.Context, userID uuid.UUID, teachSkills, learnSkills []string, limit int) ([]*User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE id <> $1
		  AND NOT blocked
		  AND (teach_skills && $2 OR learn_skills && $3)
		LIMIT $4`, userColumns)

	rows, err := db.pool.Query(ctx, query, userID, learnSkills, teachSkills, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *PostgresDB) GetPublicProfiles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]PublicProfile, error) {
	profiles := make(map[uuid.UUID]PublicProfile, len(userIDs))
	if len(userIDs) == 0 {
		return profiles, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, name, avatar_url, university, city, rating FROM users WHERE id = ANY($1)`,
		userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p PublicProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.AvatarURL, &p.University, &p.City, &p.Rating); err != nil {
			return nil, err
		}
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}

func (db *PostgresDB) SetUserBlocked(ctx context.Context, userID uuid.UUID, blocked bool) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET blocked = $2, updated_at = NOW() WHERE id = $1`, userID, blocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) SetUserVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET is_verified = $2, updated_at = NOW() WHERE id = $1`, userID, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *PostgresDB) IncrementReportCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`UPDATE users SET report_count = report_count + 1, updated_at = NOW()
		 WHERE id = $1 RETURNING report_count`, userID).Scan(&count)
	return count, notFoundIfNoRows(err)
}

func (db *PostgresDB) ListReportedUsers(ctx context.Context, minReports int) ([]*User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE report_count >= $1
		ORDER BY report_count DESC`, userColumns)

	rows, err := db.pool.Query(ctx, query, minReports)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *PostgresDB) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
