package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/studentgroup/apps/api/echo"
	"github.com/trezcool/studentgroup/core"
	"github.com/trezcool/studentgroup/core/group"
	"github.com/trezcool/studentgroup/core/schedule"
	"github.com/trezcool/studentgroup/core/task"
	"github.com/trezcool/studentgroup/core/user"
	emailsvc "github.com/trezcool/studentgroup/services/email"
	logsvc "github.com/trezcool/studentgroup/services/logger"
	prefssvc "github.com/trezcool/studentgroup/services/prefs"
	"github.com/trezcool/studentgroup/storage/database"
	"github.com/trezcool/studentgroup/storage/database/sqlxrepos"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	dbx := sqlx.NewDb(db, core.Conf.Database.Engine)

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	prefsSvc, err := prefssvc.NewService(filepath.Join(core.Conf.WorkDir, "config"))
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up prefs: %v", err), err)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx), mailSvc, logger)
	schedSvc := schedule.NewService(sqlxrepos.NewScheduleRepository(dbx))
	taskSvc := task.NewService(sqlxrepos.NewTaskRepository(dbx, database.DSN(core.Conf), logger), logger)
	groupSvc := group.NewService(sqlxrepos.NewGroupRepository(dbx))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	expvar.NewString("build").Set(core.Conf.Build)
	expvar.NewString("env").Set(core.Conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Address:     core.Conf.ServerAddress(),
		Logger:      logger,
		UserSvc:     usrSvc,
		ScheduleSvc: schedSvc,
		TaskSvc:     taskSvc,
		GroupSvc:    groupSvc,
		PrefsSvc:    prefsSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB() (*sql.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, core.Conf); err != nil {
		return nil, err
	}
	return db, nil
}
