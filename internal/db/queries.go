package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries bundles the hand-written SQL used by the services. Methods
// return pgx.ErrNoRows unwrapped so callers can errors.Is against it.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

type Share struct {
	ID        string
	OwnerID   *string
	Name      string
	State     []byte
	CreatedAt time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	row := q.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, password, display_name`,
		p.ID, p.Email, p.Password, p.DisplayName)

	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name FROM users WHERE email = $1`, email)

	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName)
	return u, err
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT id, email, password, display_name FROM users WHERE id = $1`, id)

	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName)
	return u, err
}

type CreateShareParams struct {
	ID      string
	OwnerID *string
	Name    string
	State   []byte
}

func (q *Queries) CreateShare(ctx context.Context, p CreateShareParams) (Share, error) {
	row := q.pool.QueryRow(ctx,
		`INSERT INTO shares (id, owner_id, name, state)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, owner_id, name, state, created_at`,
		p.ID, p.OwnerID, p.Name, p.State)

	var s Share
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.State, &s.CreatedAt)
	return s, err
}

func (q *Queries) GetShare(ctx context.Context, id string) (Share, error) {
	row := q.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, state, created_at FROM shares WHERE id = $1`, id)

	var s Share
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.State, &s.CreatedAt)
	return s, err
}

func (q *Queries) ListSharesForUser(ctx context.Context, userID string) ([]Share, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT id, owner_id, name, state, created_at FROM shares
		 WHERE owner_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []Share
	for rows.Next() {
		var s Share
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.State, &s.CreatedAt); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func (q *Queries) DeleteShare(ctx context.Context, id string) error {
	_, err := q.pool.Exec(ctx, `DELETE FROM shares WHERE id = $1`, id)
	return err
}
