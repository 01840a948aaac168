// File: internal/infra/db/postgres/snapshot_gateway.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/infra/security"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.SnapshotGateway = (*snapshotGateway)(nil)

// PasswordCipher protects login passwords at rest. *security.Cipher implements it.
type PasswordCipher interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

type plainText struct{}

func (plainText) Seal(s string) (string, error) { return s, nil }
func (plainText) Open(s string) (string, error) { return s, nil }

// CipherFromKey returns nil when no key is configured.
func CipherFromKey(key string) (PasswordCipher, error) {
	if key == "" {
		return nil, nil
	}
	c, err := security.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// snapshotGateway stores each collection as a full replacement: one
// transaction deletes rows that are no longer present and upserts the rest.
type snapshotGateway struct {
	pool    *pgxpool.Pool
	tm      repository.TransactionManager
	secrets PasswordCipher
}

// NewSnapshotGateway stores passwords through secrets; nil stores them as is.
func NewSnapshotGateway(pool *pgxpool.Pool, secrets PasswordCipher) *snapshotGateway {
	if secrets == nil {
		secrets = plainText{}
	}
	return &snapshotGateway{pool: pool, tm: NewTxManager(pool), secrets: secrets}
}

func (g *snapshotGateway) LoadCredentials(ctx context.Context) ([]model.Credential, error) {
	const q = `
SELECT id, username, password, location_id, plan_type, status,
       assigned_user_id, assigned_purchase_id, assigned_at, created_at
  FROM credentials
 ORDER BY position, id;`
	rows, err := queryRows(ctx, g.pool, repository.NoTX, q)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	out := make([]model.Credential, 0)
	for rows.Next() {
		var c model.Credential
		if err := rows.Scan(&c.ID, &c.Username, &c.Password, &c.LocationID, &c.PlanType, &c.Status,
			&c.AssignedUserID, &c.AssignedPurchaseID, &c.AssignedAt, &c.CreatedAt); err != nil {
			return nil, scanErr(err)
		}
		if c.Password, err = g.secrets.Open(c.Password); err != nil {
			return nil, fmt.Errorf("credential %s password: %w", c.ID, err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		if c.AssignedAt != nil {
			at := c.AssignedAt.UTC()
			c.AssignedAt = &at
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (g *snapshotGateway) SaveCredentials(ctx context.Context, all []model.Credential) error {
	const upsert = `
INSERT INTO credentials (id, position, username, password, location_id, plan_type, status,
                         assigned_user_id, assigned_purchase_id, assigned_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
  position=$2, username=$3, password=$4, location_id=$5, plan_type=$6, status=$7,
  assigned_user_id=$8, assigned_purchase_id=$9, assigned_at=$10;`

	ids := make([]string, len(all))
	b := &pgx.Batch{}
	for i, c := range all {
		ids[i] = c.ID
		pw, err := g.secrets.Seal(c.Password)
		if err != nil {
			return fmt.Errorf("seal credential %s: %w", c.ID, err)
		}
		b.Queue(upsert, c.ID, i, c.Username, pw, c.LocationID, string(c.PlanType), string(c.Status),
			c.AssignedUserID, c.AssignedPurchaseID, c.AssignedAt, c.CreatedAt)
	}
	return g.replace(ctx, "credentials", ids, b)
}

func (g *snapshotGateway) LoadPurchases(ctx context.Context) ([]model.Purchase, error) {
	const q = `
SELECT id, user_id, plan_id, location_id, credential_id, amount,
       purchased_at, expires_at, username, password, status
  FROM purchases
 ORDER BY position, id;`
	rows, err := queryRows(ctx, g.pool, repository.NoTX, q)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	out := make([]model.Purchase, 0)
	for rows.Next() {
		var p model.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlanID, &p.LocationID, &p.CredentialID, &p.Amount,
			&p.PurchasedAt, &p.ExpiresAt, &p.Credentials.Username, &p.Credentials.Password, &p.Status); err != nil {
			return nil, scanErr(err)
		}
		if p.Credentials.Password, err = g.secrets.Open(p.Credentials.Password); err != nil {
			return nil, fmt.Errorf("purchase %s password: %w", p.ID, err)
		}
		p.PurchasedAt, p.ExpiresAt = p.PurchasedAt.UTC(), p.ExpiresAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (g *snapshotGateway) SavePurchases(ctx context.Context, all []model.Purchase) error {
	const upsert = `
INSERT INTO purchases (id, position, user_id, plan_id, location_id, credential_id, amount,
                       purchased_at, expires_at, username, password, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO UPDATE SET
  position=$2, status=$12;`

	ids := make([]string, len(all))
	b := &pgx.Batch{}
	for i, p := range all {
		ids[i] = p.ID
		pw, err := g.secrets.Seal(p.Credentials.Password)
		if err != nil {
			return fmt.Errorf("seal purchase %s: %w", p.ID, err)
		}
		b.Queue(upsert, p.ID, i, p.UserID, p.PlanID, p.LocationID, p.CredentialID, p.Amount,
			p.PurchasedAt, p.ExpiresAt, p.Credentials.Username, pw, string(p.Status))
	}
	return g.replace(ctx, "purchases", ids, b)
}

// replace runs the delete and the queued upserts in one transaction.
func (g *snapshotGateway) replace(ctx context.Context, table string, keep []string, b *pgx.Batch) error {
	start := time.Now()
	err := g.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// table is one of two constants, never user input
		if _, err := execSQL(ctx, g.pool, tx, `DELETE FROM `+table+` WHERE NOT (id = ANY($1));`, keep); err != nil {
			return writeErr(err)
		}
		if b.Len() == 0 {
			return nil
		}
		ex, err := getExecutor(g.pool, tx)
		if err != nil {
			return err
		}
		br := ex.SendBatch(ctx, b)
		for i := 0; i < b.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return writeErr(fmt.Errorf("upsert %s row %d: %w", table, i, err))
			}
		}
		return br.Close()
	})
	if err != nil {
		return fmt.Errorf("save %s snapshot (%s): %w", table, time.Since(start), err)
	}
	return nil
}
