package repository

import (
	"testing"
)

func TestDbDialectNameDefault(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}

func TestLikeOperatorDefault(t *testing.T) {
	if got := likeOperator(nil); got != "LIKE" {
		t.Fatalf("default like operator want LIKE got %s", got)
	}
}

func TestDayExprByDialectSQLite(t *testing.T) {
	got := dayExprByDialect(nil, "created_at")
	want := "CAST(date(created_at) AS TEXT)"
	if got != want {
		t.Fatalf("sqlite day expr mismatch, want %s got %s", want, got)
	}
}
