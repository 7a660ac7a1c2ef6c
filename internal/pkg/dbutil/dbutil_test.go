package dbutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalizeRewritesMysqlStyleLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM files WHERE user_id=? LIMIT ?,?", []interface{}{"u1", 20, 10})
	require.Equal(t, "SELECT id FROM files WHERE user_id=$1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u1", 10, 20}, args)
}

func TestFinalizeKeepsPlainQuery(t *testing.T) {
	query, args := Finalize("SELECT id FROM files WHERE id=?", []interface{}{"f1"})
	require.Equal(t, "SELECT id FROM files WHERE id=$1", query)
	require.Equal(t, []interface{}{"f1"}, args)
}

func TestInExpandsSlice(t *testing.T) {
	query, args, err := In("SELECT id FROM files WHERE user_id = ? AND id IN (?)", "u1", []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "SELECT id FROM files WHERE user_id = $1 AND id IN ($2, $3)", query)
	require.Len(t, args, 3)
}
