package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userhub/userhub/internal/domain/entity"
	"github.com/userhub/userhub/internal/domain/repository"
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	db querier
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password, primary_email, avatar_url, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.PrimaryEmail, &u.AvatarURL,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	if err := r.loadRoles(ctx, u); err != nil {
		return nil, err
	}
	if err := r.loadEmails(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var id int64
	row := r.db.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, username)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *UserRepository) FindByUsernameContaining(ctx context.Context, partial string) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM users
		WHERE username ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY id
	`, escapeLike(partial))
	if err != nil {
		return nil, err
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	return r.loadAll(ctx, ids)
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.ID == 0 {
		row := r.db.QueryRow(ctx, `
			INSERT INTO users (username, password, primary_email, avatar_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, u.Username, u.Password, u.PrimaryEmail, u.AvatarURL)
		if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, mapUniqueViolation(err)
		}
	} else {
		res, err := r.db.Exec(ctx, `
			UPDATE users
			SET username = $1, password = $2, primary_email = $3, updated_at = now()
			WHERE id = $4
		`, u.Username, u.Password, u.PrimaryEmail, u.ID)
		if err != nil {
			return nil, mapUniqueViolation(err)
		}
		if res.RowsAffected() == 0 {
			return nil, repository.ErrUserNotFound
		}
	}
	return u, nil
}

// ReplaceEmails rewrites the owned email collection wholesale. Rows no
// longer referenced by the in-memory collection are removed here; this is
// the orphan-removal contract the service relies on. Save deliberately
// leaves emails alone so a partial update does not churn surrogate ids.
func (r *UserRepository) ReplaceEmails(ctx context.Context, userID int64, emails []entity.UserEmail) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_emails WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for _, e := range emails {
		if _, err := r.db.Exec(ctx, `
			INSERT INTO user_emails (user_id, email) VALUES ($1, $2)
		`, userID, e.Email); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, id int64, url string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users SET avatar_url = $1, updated_at = now() WHERE id = $2
	`, url, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) CountMembership(ctx context.Context, userID, roleID int64) (int, error) {
	var count int
	row := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_roles WHERE user_id = $1 AND role_id = $2
	`, userID, roleID)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) DeleteMembership(ctx context.Context, userID, roleID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2
	`, userID, roleID)
	return err
}

func (r *UserRepository) InsertMembership(ctx context.Context, actor string, userID, roleID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_by, created_at, last_modified_by, last_modified_at)
		VALUES ($1, $2, $3, now(), $3, now())
	`, userID, roleID, actor)
	if err != nil {
		var pgErr *pgconn.PgError
		// the composite primary key backs up the check-then-act guard
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrMembershipExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) loadRoles(ctx context.Context, u *entity.User) error {
	rows, err := r.db.Query(ctx, `
		SELECT ur.user_id, ur.role_id, ur.created_by, ur.created_at,
		       ur.last_modified_by, ur.last_modified_at,
		       r.id, r.name, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ur.role_id
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	u.Roles = nil
	for rows.Next() {
		var ur entity.UserRole
		role := &entity.Role{}
		if err := rows.Scan(&ur.UserID, &ur.RoleID, &ur.CreatedBy, &ur.CreatedAt,
			&ur.LastModifiedBy, &ur.LastModifiedAt,
			&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		ur.Role = role
		u.Roles = append(u.Roles, ur)
	}
	return rows.Err()
}

func (r *UserRepository) loadEmails(ctx context.Context, u *entity.User) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, email FROM user_emails WHERE user_id = $1 ORDER BY id
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	u.Emails = nil
	for rows.Next() {
		var e entity.UserEmail
		if err := rows.Scan(&e.ID, &e.UserID, &e.Email); err != nil {
			return err
		}
		u.Emails = append(u.Emails, e)
	}
	return rows.Err()
}

func (r *UserRepository) loadAll(ctx context.Context, ids []int64) ([]entity.User, error) {
	users := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters so the partial matches as a
// literal substring rather than a pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return repository.ErrUsernameTaken
	}
	return err
}

var _ repository.UserRepository = (*UserRepository)(nil)
