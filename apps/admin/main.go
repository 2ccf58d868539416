package main

import (
	"fmt"
	"log"
	"os"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/admin"
	logsvc "github.com/erise-club/website/services/logger"
	"github.com/erise-club/website/storage/database"
	sqlxrepos "github.com/erise-club/website/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	// the migrate command manages the schema itself
	if len(os.Args) < 2 || os.Args[1] != "migrate" {
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
	}

	validate, translator := core.NewValidator()
	admin.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		adminSvc:   admin.NewService(sqlxrepos.NewAdminRepository(db), conf.Server.SessionTTL),
		validate:   validate,
		translator: translator,
		logger:     std,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
