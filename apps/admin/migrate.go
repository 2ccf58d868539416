package main

import "context"

func (cli *commandLine) migrate(ctx context.Context, command string, args []string) error {
	return runMigrationsFunc(ctx, cli.db, cli.logger, command, args...)
}
