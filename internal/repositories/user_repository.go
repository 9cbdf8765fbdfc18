package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
	"social-service/internal/pagination"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUsernameTaken = errors.New("username already taken")
)

const userColumns = `id, email, password_hash, name, username, birth_date, gender, bio, phone, photo_url, created_at`

// UserRepository abstracts account and profile persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error)
	UpdateEmail(ctx context.Context, id string, email string) error
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
	SearchByUsernamePrefix(ctx context.Context, prefix string, after pagination.Cursor, pageSize int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new account row.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	query := `INSERT INTO users (id, email, password_hash, name, username, birth_date, gender, bio, phone, photo_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + userColumns
	var created models.User
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Username,
		user.BirthDate, user.Gender, user.Bio, user.Phone, user.PhotoURL,
	).StructScan(&created)
	if err != nil {
		return models.User{}, uniqueViolation(err)
	}
	return created, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateProfile applies the non-nil fields of upd and returns the new row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	query := `UPDATE users SET
            name = COALESCE($2, name),
            birth_date = COALESCE($3, birth_date),
            gender = COALESCE($4, gender),
            bio = COALESCE($5, bio),
            phone = COALESCE($6, phone),
            photo_url = COALESCE($7, photo_url)
        WHERE id=$1
        RETURNING ` + userColumns
	var user models.User
	err := r.db.QueryRowxContext(ctx, query, id, upd.Name, upd.BirthDate, upd.Gender, upd.Bio, upd.Phone, upd.PhotoURL).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// UpdateEmail changes the account email.
func (r *UserRepo) UpdateEmail(ctx context.Context, id string, email string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET email=$2 WHERE id=$1`, id, email)
	if err != nil {
		return uniqueViolation(err)
	}
	return requireRow(res, ErrUserNotFound)
}

// UpdatePasswordHash replaces the stored password hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$2 WHERE id=$1`, id, hash)
	if err != nil {
		return err
	}
	return requireRow(res, ErrUserNotFound)
}

// SearchByUsernamePrefix returns a page of users whose username starts with
// prefix, newest first. An empty prefix lists everyone. The prefix matches
// literally: LIKE metacharacters in it are escaped.
func (r *UserRepo) SearchByUsernamePrefix(ctx context.Context, prefix string, after pagination.Cursor, pageSize int) ([]models.User, error) {
	escaped := escapeLikePrefix(prefix)
	var users []models.User
	if after.IsFirst() {
		query := `SELECT ` + userColumns + ` FROM users
            WHERE username LIKE $1 || '%'
            ORDER BY created_at DESC, id DESC LIMIT $2`
		err := r.db.SelectContext(ctx, &users, query, escaped, pageSize)
		return users, err
	}
	query := `SELECT ` + userColumns + ` FROM users
        WHERE username LIKE $1 || '%' AND (created_at, id) < ($2, $3)
        ORDER BY created_at DESC, id DESC LIMIT $4`
	err := r.db.SelectContext(ctx, &users, query, escaped, after.CreatedAt, after.ID, pageSize)
	return users, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikePrefix neutralizes LIKE metacharacters so user input can only
// ever be a literal prefix. Backslash is the default LIKE escape character.
func escapeLikePrefix(prefix string) string {
	return likeEscaper.Replace(prefix)
}

func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrEmailTaken
		case "users_username_key":
			return ErrUsernameTaken
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func requireRow(res sql.Result, notFound error) error {
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
