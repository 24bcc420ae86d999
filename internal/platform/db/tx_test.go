package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestIsSerializationFailure(t *testing.T) {
	serr := &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
	if !IsSerializationFailure(serr) {
		t.Fatal("SQLSTATE 40001 not recognised")
	}
	if !IsSerializationFailure(fmt.Errorf("tx: %w", serr)) {
		t.Fatal("wrapped 40001 not recognised")
	}
	if IsSerializationFailure(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation mistaken for serialization failure")
	}
	if IsSerializationFailure(errors.New("boom")) {
		t.Fatal("plain error mistaken for serialization failure")
	}
	if IsSerializationFailure(nil) {
		t.Fatal("nil mistaken for serialization failure")
	}
}
