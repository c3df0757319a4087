package db

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openPostgres runs against a real server only when STOREFRONT_TEST_DATABASE_URL
// is set. Each test gets its own schema, dropped on cleanup.
func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}

	db, err := Open(context.Background(), dsn)
	require.NoError(t, err)

	schema := pq.QuoteIdentifier("test_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	require.NoError(t, db.Exec("CREATE SCHEMA "+schema).Error)
	t.Cleanup(func() {
		_ = db.Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = Close(db)
	})

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("SET search_path TO "+schema).Error)
	return db
}

type pgItem struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
	Tags []string `gorm:"type:text;serializer:json"`
}

func TestPostgres_RoundTrip(t *testing.T) {
	db := openPostgres(t)
	require.NoError(t, db.AutoMigrate(&pgItem{}))

	in := pgItem{ID: uuid.New(), Name: "Gabinete Gamer", Tags: []string{"rgb"}}
	require.NoError(t, db.Create(&in).Error)

	var out pgItem
	require.NoError(t, db.First(&out, "id = ?", in.ID).Error)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Tags, out.Tags)
}
