package repo

import (
	"context"
	"fmt"
	"time"

	"ecommerce-shop/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

type UsersPG struct {
	DB DBTX
}

const userColumns = `
	id, first_name, last_name, email, age, password_hash, role, provider,
	coalesce(cart_id::text, ''), last_connection, last_connection_github,
	reset_token, reset_token_expires, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u        models.User
		role     string
		provider string
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Age, &u.PasswordHash, &role, &provider,
		&u.CartID, &u.LastConnection, &u.LastConnectionGitHub,
		&u.ResetToken, &u.ResetTokenExpires, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Provider = models.Provider(provider)
	return &u, nil
}

func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func (r *UsersPG) Create(ctx context.Context, u *models.User) error {
	_, err := r.DB.Exec(ctx, `
		insert into users (
			id, first_name, last_name, email, age, password_hash, role, provider,
			cart_id, last_connection, last_connection_github, created_at, updated_at
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`, u.ID, u.FirstName, u.LastName, u.Email, u.Age, u.PasswordHash, string(u.Role), string(u.Provider),
		nullable(u.CartID), u.LastConnection, u.LastConnectionGitHub, u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return r.AddDocuments(ctx, u.ID, u.Documents)
}

func (r *UsersPG) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `select `+userColumns+` from users where id = $1`, id)
}

func (r *UsersPG) GetForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `select `+userColumns+` from users where id = $1 for update`, id)
}

func (r *UsersPG) get(ctx context.Context, sql, id string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, notFound(err)
	}
	if u.Documents, err = r.documents(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UsersPG) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `select `+userColumns+` from users where lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFound(err)
	}
	if u.Documents, err = r.documents(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UsersPG) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.Query(ctx, `select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UsersPG) Update(ctx context.Context, u *models.User) error {
	ct, err := r.DB.Exec(ctx, `
		update users
		set first_name = $2, last_name = $3, email = $4, age = $5, password_hash = $6,
		    role = $7, cart_id = $8, reset_token = $9, reset_token_expires = $10,
		    updated_at = $11
		where id = $1
	`, u.ID, u.FirstName, u.LastName, u.Email, u.Age, u.PasswordHash,
		string(u.Role), nullable(u.CartID), u.ResetToken, u.ResetTokenExpires, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) TouchLastConnection(ctx context.Context, id string, at time.Time) error {
	return r.touch(ctx, `update users set last_connection = $2 where id = $1`, id, at)
}

func (r *UsersPG) TouchLastConnectionGitHub(ctx context.Context, id string, at time.Time) error {
	return r.touch(ctx, `update users set last_connection_github = $2 where id = $1`, id, at)
}

func (r *UsersPG) touch(ctx context.Context, sql, id string, at time.Time) error {
	ct, err := r.DB.Exec(ctx, sql, id, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UsersPG) AddDocuments(ctx context.Context, id string, docs []models.Document) error {
	for _, d := range docs {
		if _, err := r.DB.Exec(ctx, `
			insert into user_documents (user_id, kind, name, reference) values ($1, $2, $3, $4)
		`, id, d.Kind, d.Name, d.Reference); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

// DeleteInactive treats the later of the local and GitHub connection times
// as the user's last activity.
func (r *UsersPG) DeleteInactive(ctx context.Context, before time.Time) ([]models.User, error) {
	rows, err := r.DB.Query(ctx, `
		delete from users
		where greatest(last_connection, last_connection_github) < $1
		   or (last_connection is null and last_connection_github is null and created_at < $1)
		returning `+userColumns, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UsersPG) documents(ctx context.Context, userID string) ([]models.Document, error) {
	rows, err := r.DB.Query(ctx, `
		select kind, name, reference from user_documents where user_id = $1 order by id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.Kind, &d.Name, &d.Reference); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
