package main

import (
	"path/filepath"

	"github.com/pressly/goose"

	"github.com/trezcool/studentgroup/core"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	if err := goose.SetDialect(core.Conf.Database.Engine); err != nil {
		return err
	}
	dir := filepath.Join(core.Conf.WorkDir, "storage", "database", "migrations")

	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, dir, arguments...)
}
