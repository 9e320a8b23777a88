package main

import (
	"io"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/studentgroup/core"
	"github.com/trezcool/studentgroup/core/group"
	"github.com/trezcool/studentgroup/core/schedule"
	"github.com/trezcool/studentgroup/core/user"
	emailsvc "github.com/trezcool/studentgroup/services/email"
	"github.com/trezcool/studentgroup/storage/database"
	"github.com/trezcool/studentgroup/storage/database/sqlxrepos"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	dbx := sqlx.NewDb(db, core.Conf.Database.Engine)

	svcLogger := core.StdLogger{Std: log.New(io.Discard, "", 0)}

	// start CLI
	usrRepo := sqlxrepos.NewUserRepository(dbx)
	cli := commandLine{
		db:       db,
		usrRepo:  usrRepo,
		usrSvc:   user.NewService(usrRepo, emailsvc.NewConsoleService(), svcLogger),
		schedSvc: schedule.NewService(sqlxrepos.NewScheduleRepository(dbx)),
		grpSvc:   group.NewService(sqlxrepos.NewGroupRepository(dbx)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
