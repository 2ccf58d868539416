package main

import (
	"context"

	"github.com/erise-club/website/core/admin"
)

// addAdmin creates an admin.Admin complying with the password policy.
func (cli *commandLine) addAdmin(ctx context.Context, uname, pwd string) error {
	na := admin.NewAdmin{Username: uname, Password: pwd}
	if err := na.Validate(cli.validate); err != nil {
		return cli.describe(err)
	}
	adm, err := cli.adminSvc.Create(ctx, na)
	if err != nil {
		return err
	}
	cli.logger.Printf("admin %q created", adm.Username)
	return nil
}
