package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/pos-system/internal/config"
)

func TestDSNRoundTrip(t *testing.T) {
	dsn := DSN(config.Config{
		DBUser: "pos",
		DBPass: "s3cret",
		DBHost: "db.local",
		DBPort: "3306",
		DBName: "pos",
	})

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	require.Equal(t, "pos", parsed.User)
	require.Equal(t, "s3cret", parsed.Passwd)
	require.Equal(t, "db.local:3306", parsed.Addr)
	require.Equal(t, "pos", parsed.DBName)
	require.True(t, parsed.ParseTime)
	require.True(t, parsed.ClientFoundRows)
	require.Equal(t, "UTC", parsed.Loc.String())
}
