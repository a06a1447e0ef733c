package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := fmt.Errorf("insert vote: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "uq_votes_suggestion_user"})

	assert.True(t, IsDuplicateConstraintError(err, "uq_votes_suggestion_user"))
	assert.False(t, IsDuplicateConstraintError(err, "uq_other"))
	assert.False(t, IsDuplicateConstraintError(errors.New("boom"), "uq_votes_suggestion_user"))
}

func TestIsTransactionConflict(t *testing.T) {
	assert.True(t, IsTransactionConflict(&pgconn.PgError{Code: CodeSerializationFailure}))
	assert.True(t, IsTransactionConflict(fmt.Errorf("commit: %w", &pgconn.PgError{Code: CodeDeadlockDetected})))
	assert.False(t, IsTransactionConflict(&pgconn.PgError{Code: CodeUniqueViolation}))
	assert.False(t, IsTransactionConflict(errors.New("connection refused")))
	assert.False(t, IsTransactionConflict(nil))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("get club: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("other")))
}
