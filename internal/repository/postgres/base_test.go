package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/jwalitptl/ward-assistant/pkg/errors"
)

func TestWrapErrClassifiesConnectivity(t *testing.T) {
	for _, err := range []error{
		driver.ErrBadConn,
		fmt.Errorf("query: %w", context.DeadlineExceeded),
		&pq.Error{Code: "08006"},
		&pq.Error{Code: "57P01"},
	} {
		got := wrapErr("list audit logs", err)
		assert.True(t, apperrors.IsRetryable(got), err.Error())
		assert.ErrorIs(t, got, err)
	}
}

func TestWrapErrKeepsOtherFailures(t *testing.T) {
	cause := &pq.Error{Code: "23505"}

	got := wrapErr("create audit log", cause)

	assert.False(t, apperrors.IsRetryable(got))
	assert.EqualError(t, got, "failed to create audit log: "+cause.Error())
	assert.True(t, errors.Is(got, cause))
}
