// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/orm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated in-memory SQLite database private to t.
func SetupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, orm.Migrate(db))
	t.Cleanup(func() { _ = orm.Close(db) })
	return db
}

// SetupTestStore wraps SetupTestDB in an orm.Store.
func SetupTestStore(t testing.TB) *orm.Store {
	return orm.NewStore(SetupTestDB(t))
}

// FixedValidator returns a date validator whose clock is pinned to now.
func FixedValidator(now time.Time, loc *time.Location) *core.DateValidator {
	v := core.NewDateValidator(loc)
	v.Now = func() time.Time { return now }
	return v
}
