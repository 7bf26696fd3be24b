package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds the pgx.Tx interface so only the methods under test need
// implementations.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
	gotOpts  pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.gotOpts = opts
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	pool := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.True(t, tx.committed)
	require.Equal(t, pgx.RepeatableRead, pool.gotOpts.IsoLevel)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	pool := &fakeBeginner{tx: tx}
	boom := errors.New("boom")

	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	pool := &fakeBeginner{tx: tx}

	require.Panics(t, func() {
		_ = WithTx(context.Background(), pool, func(pgx.Tx) error { panic("boom") })
	})
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
}

func TestWithSerializableTxIsolation(t *testing.T) {
	tx := &fakeTx{}
	pool := &fakeBeginner{tx: tx}

	err := WithSerializableTx(context.Background(), pool, func(pgx.Tx) error { return nil })
	require.NoError(t, err)
	require.Equal(t, pgx.Serializable, pool.gotOpts.IsoLevel)
}

func TestWithTxWrapsBeginAndCommitErrors(t *testing.T) {
	pool := &fakeBeginner{beginErr: errors.New("down")}
	err := WithTx(context.Background(), pool, func(pgx.Tx) error { return nil })
	require.ErrorContains(t, err, "begin tx")

	commitErr := errors.New("conflict")
	pool = &fakeBeginner{tx: &fakeTx{commitErr: commitErr}}
	err = WithTx(context.Background(), pool, func(pgx.Tx) error { return nil })
	require.ErrorIs(t, err, commitErr)
}
