package main

import (
	"context"
	"fmt"

	"github.com/trezcool/studentgroup/core/user"
)

func (cli *commandLine) setRole(email, role string) error {
	usr, err := cli.usrSvc.SetRole(context.Background(), email, user.Role(role))
	if err != nil {
		return err
	}
	fmt.Printf("%s is now a %s\n", usr.Email, usr.Role)
	return nil
}
