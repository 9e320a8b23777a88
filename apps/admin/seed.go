package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core"
	"github.com/trezcool/studentgroup/core/group"
	"github.com/trezcool/studentgroup/core/schedule"
	"github.com/trezcool/studentgroup/core/user"
)

// seed loads the fixtures into any empty collections. Re-running it against a
// populated database is a no-op.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	dir := filepath.Join(core.Conf.WorkDir, "assets", "fixtures")

	if err := cli.seedSchedule(ctx, filepath.Join(dir, "schedule.json")); err != nil {
		return errors.Wrap(err, "seeding schedule")
	}
	if err := cli.seedGroup(ctx, filepath.Join(dir, "group.json")); err != nil {
		return errors.Wrap(err, "seeding group roster")
	}
	if err := cli.seedCodes(ctx, filepath.Join(dir, "invitees.json")); err != nil {
		return errors.Wrap(err, "seeding registration codes")
	}
	return nil
}

func (cli *commandLine) seedSchedule(ctx context.Context, path string) error {
	var raw map[string]map[string]interface{}
	if err := readFixture(path, &raw); err != nil {
		return err
	}

	week := make(schedule.WeekSchedule)
	for name, rawDay := range raw {
		day := schedule.Day(name)
		if !day.IsValid() {
			logger.Printf("skipping unknown day %q", name)
			continue
		}
		ds, skipped := schedule.NormalizeDay(rawDay)
		if skipped > 0 {
			logger.Printf("%s: skipped %d malformed lesson(s)", day, skipped)
		}
		if ds != nil {
			week[day] = ds
		}
	}
	return cli.schedSvc.Seed(ctx, week)
}

func (cli *commandLine) seedGroup(ctx context.Context, path string) error {
	var students []group.Student
	if err := readFixture(path, &students); err != nil {
		return err
	}
	return cli.grpSvc.Seed(ctx, students)
}

func (cli *commandLine) seedCodes(ctx context.Context, path string) error {
	var invitees []user.Invitee
	if err := readFixture(path, &invitees); err != nil {
		return err
	}
	codes, err := cli.usrSvc.SeedCodes(ctx, invitees)
	if err != nil {
		return err
	}
	for _, code := range codes {
		logger.Printf("%s %s -> %s", code.FirstName, code.LastName, code.Code)
	}
	return nil
}

func readFixture(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filepath.Base(path))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "parsing %s", filepath.Base(path))
	}
	return nil
}
