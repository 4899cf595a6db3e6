package audit

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "forum", Password: "secret", DBName: "nova", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=forum password=secret dbname=nova sslmode=disable", cfg.DSN())
}

func TestPostgresJournalRoundTrip(t *testing.T) {
	dsn := os.Getenv("FORUM_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FORUM_TEST_DATABASE_URL not set")
	}

	j, err := OpenPostgresJournal(dsn, zap.NewNop())
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	target := uuid.NewString()
	require.NoError(t, j.Record(ctx, Entry{Actor: "admin_vega", Action: ActionDelete, TargetID: target}))

	entries, err := j.Recent(ctx, 50)
	require.NoError(t, err)

	found := false
	for _, e := range entries {
		if e.TargetID == target {
			found = true
			assert.Equal(t, ActionDelete, e.Action)
			assert.Equal(t, "admin_vega", e.Actor)
		}
	}
	assert.True(t, found, "recorded entry not returned by Recent")
}
