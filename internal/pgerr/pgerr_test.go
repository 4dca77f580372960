package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	require.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	require.True(t, IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_teams_name" (SQLSTATE 23505)`)))
	require.False(t, IsUniqueViolation(errors.New("SQLSTATE 23503")))
	require.False(t, IsUniqueViolation(nil))
}
