package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// snapshotOwnerKey identifies the session that owns the credential snapshot.
const snapshotOwnerKey int64 = 0x77696669 // "wifi"

// ErrSnapshotBusy means another process owns the snapshot.
var ErrSnapshotBusy = errors.New("credential snapshot is owned by another process")

// InstanceLock is a session-level advisory lock held on a dedicated
// connection. Only the holder may write the snapshot, since every flush
// replaces the stored collections wholesale.
type InstanceLock struct {
	conn *pgxpool.Conn
}

// AcquireInstanceLock fails fast with ErrSnapshotBusy when the lock is taken.
func AcquireInstanceLock(ctx context.Context, pool *pgxpool.Pool) (*InstanceLock, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, snapshotOwnerKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, ErrSnapshotBusy
	}
	return &InstanceLock{conn: conn}, nil
}

func (l *InstanceLock) Release(ctx context.Context) error {
	if l == nil || l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()
	_, err := l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, snapshotOwnerKey)
	return err
}
