package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c IN (?, ?)"
	require.Equal(t, q, Rebind(DialectSQLite, q))
	require.Equal(t, "SELECT a FROM t WHERE b = $1 AND c IN ($2, $3)", Rebind(DialectPostgres, q))
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "", Placeholders(0))
	require.Equal(t, "?", Placeholders(1))
	require.Equal(t, "?, ?, ?", Placeholders(3))
}

func TestOpenSQLiteMemory(t *testing.T) {
	conn, err := Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Ping())
}
