package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/core/resource"
	logsvc "github.com/erise-club/website/services/logger"
	"github.com/erise-club/website/storage/database"
)

// NewConfig returns the TEST configuration, using a fresh SQLite file under t.TempDir().
func NewConfig(t *testing.T) *core.Config {
	conf, err := core.LoadConfig("TEST", t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig() failed: %v", err)
	}
	conf.Database.Engine = "sqlite3"
	conf.Database.Path = filepath.Join(t.TempDir(), "test.sqlite")
	conf.Server.DisableReqLogs = true
	conf.Chat.APIKey = ""
	conf.Redis.URL = ""
	return conf
}

// PrepareDB opens & migrates the configured test database. It is closed when the test ends.
func PrepareDB(t *testing.T, conf *core.Config) *sqlx.DB {
	db, err := database.Open(conf.Database)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewLogger returns a logger writing nowhere, with error reporting disabled.
func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateAdmin(t *testing.T, repo admin.Repository, uname, pwd string, createdAt ...time.Time) admin.Admin {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	adm := admin.Admin{
		Username:  uname,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if err := adm.SetPassword(pwd); err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	adm, err := repo.CreateAdmin(context.Background(), adm)
	if err != nil {
		t.Fatalf("CreateAdmin() failed: %v", err)
	}
	return adm
}

// CreateRow inserts a resource row and returns its identifier.
func CreateRow[T any](t *testing.T, repo resource.Repository[T], values map[string]interface{}) int64 {
	id, err := repo.Create(context.Background(), values)
	if err != nil {
		t.Fatalf("CreateRow() failed: %v", err)
	}
	return id
}
