package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
)

type stubTx struct{ pgx.Tx }

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Fatalf("expected no transaction, got %v", tx)
	}
}

func TestAdvisoryXactLock_RequiresTx(t *testing.T) {
	if err := AdvisoryXactLock(context.Background(), "doctor:2024-01-01"); err == nil {
		t.Fatal("expected error outside a transaction")
	}
}

func TestContextWithTx_Conn(t *testing.T) {
	tx := &stubTx{}
	ctx := ContextWithTx(context.Background(), tx)
	if got := Conn(ctx, nil); got != tx {
		t.Fatalf("expected Conn to resolve the bound tx, got %v", got)
	}
}

func TestWithoutTx(t *testing.T) {
	ctx := ContextWithTx(context.Background(), &stubTx{})
	detached := WithoutTx(ctx)
	if tx := TxFromContext(detached); tx != nil {
		t.Fatalf("expected no transaction after WithoutTx, got %v", tx)
	}
	if TxFromContext(ctx) == nil {
		t.Fatal("WithoutTx must not change the parent context")
	}
	if _, ok := Conn(detached, nil).(pgx.Tx); ok {
		t.Fatal("expected Conn to fall back to the pool")
	}

	plain := context.Background()
	if WithoutTx(plain) != plain {
		t.Error("expected a context without a tx to be returned as is")
	}
}
