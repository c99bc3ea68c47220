package mocks

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
)

// BuildConn returns a mocked connection that is closed when the test ends.
func BuildConn(t *testing.T) pgxmock.PgxConnIface {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err.Error())
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

// BuildTransaction returns a mocked connection that expects one committed transaction.
func BuildTransaction(t *testing.T) pgxmock.PgxConnIface {
	db := BuildConn(t)
	db.ExpectBegin()
	return db
}
