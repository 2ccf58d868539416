package main

import "context"

func (cli *commandLine) revoke(ctx context.Context, uname string) error {
	if err := cli.adminSvc.RevokeAll(ctx, uname); err != nil {
		return err
	}
	cli.logger.Printf("all sessions of %q revoked", uname)
	return nil
}
