package postgres

import (
	"context"
	"fmt"

	"wifi-voucher/internal/domain"
	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.LocationRepository = (*locationRepo)(nil)

type locationRepo struct {
	pool *pgxpool.Pool
}

func NewLocationRepo(pool *pgxpool.Pool) *locationRepo {
	return &locationRepo{pool: pool}
}

func (r *locationRepo) Save(ctx context.Context, tx repository.Tx, l *model.Location) error {
	const q = `
INSERT INTO locations (id, name, wifi_name, username, password, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=$2, wifi_name=$3, username=$4, password=$5, is_active=$6;`
	if _, err := execSQL(ctx, r.pool, tx, q, l.ID, l.Name, l.WifiName, l.Username, l.Password, l.IsActive); err != nil {
		return fmt.Errorf("save location: %w", writeErr(err))
	}
	return nil
}

func (r *locationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Location, error) {
	q := `SELECT id, name, wifi_name, username, password, is_active FROM locations WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var l model.Location
	if err := row.Scan(&l.ID, &l.Name, &l.WifiName, &l.Username, &l.Password, &l.IsActive); err != nil {
		return nil, scanErr(err)
	}
	return &l, nil
}

func (r *locationRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Location, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT id, name, wifi_name, username, password, is_active FROM locations ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var out []*model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.WifiName, &l.Username, &l.Password, &l.IsActive); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (r *locationRepo) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	ct, err := execSQL(ctx, r.pool, tx, `UPDATE locations SET is_active=$2 WHERE id=$1;`, id, active)
	if err != nil {
		return fmt.Errorf("set location active: %w", writeErr(err))
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
