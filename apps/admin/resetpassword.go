package main

import (
	"context"

	"github.com/erise-club/website/core/admin"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	na := admin.NewAdmin{Username: uname, Password: pwd}
	if err := na.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	if err := cli.adminSvc.SetPassword(ctx, na.Username, na.Password); err != nil {
		return err
	}
	cli.logger.Printf("password of %q reset, all sessions revoked", na.Username)
	return nil
}
