package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/codex-staffing/internal/core/client"
	pgdb "github.com/ogurasousui/codex-staffing/internal/platform/db/postgres"
)

const clientColumns = `id, name, email, phone, contact_person_position, address, map_location, created_at, updated_at`

// ClientRepository は PostgreSQL を利用した顧客永続化の実装です。
type ClientRepository struct {
	pool pgdb.Queryer
}

// NewClientRepository は ClientRepository を生成します。
func NewClientRepository(pool pgdb.Queryer) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Create は顧客を新規作成します。
func (r *ClientRepository) Create(ctx context.Context, c *client.Client) (*client.Client, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO clients (name, email, phone, contact_person_position, address, map_location, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+clientColumns+`
    `,
		c.Name,
		nullableString(c.ContactInfo.Email),
		c.ContactInfo.Phone,
		c.ContactInfo.ContactPersonPosition,
		nullableString(c.ContactInfo.Address),
		nullableString(c.ContactInfo.MapLocation),
		c.CreatedAt,
		c.UpdatedAt,
	)

	return scanClient(row)
}

// FindByID は ID で顧客を取得します。
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*client.Client, error) {
	if !isUUID(id) {
		return nil, client.ErrClientNotFound
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+clientColumns+`
          FROM clients
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanClient(row)
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var (
		id, name, phone, position   string
		email, address, mapLocation sql.NullString
		createdAt, updatedAt        time.Time
	)

	if err := row.Scan(&id, &name, &email, &phone, &position, &address, &mapLocation, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrClientNotFound
		}
		return nil, err
	}

	return &client.Client{
		ID:   id,
		Name: name,
		ContactInfo: client.ContactInfo{
			Email:                 stringPtr(email),
			Phone:                 phone,
			ContactPersonPosition: position,
			Address:               stringPtr(address),
			MapLocation:           stringPtr(mapLocation),
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
