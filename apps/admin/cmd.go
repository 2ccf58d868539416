package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/storage/database"
)

var (
	readPasswordFunc  = term.ReadPassword       // mockable
	runMigrationsFunc = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	adminSvc   *admin.Service
	validate   *validator.Validate
	translator ut.Translator
	logger     *log.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME       - create an admin account")
	fmt.Println("  resetpassword -username USERNAME - reset an admin's password (revokes their sessions)")
	fmt.Println("  revoke -username USERNAME        - revoke every session of an admin")
	fmt.Println("  migrate COMMAND [ARGS...]        - run a database migration command (up, down, status, version...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	switch args[1] {
	case "adduser":
		uname, pwd, err := parseCredentials("adduser", args[2:])
		if err != nil {
			return err
		}
		return cli.addAdmin(ctx, uname, pwd)
	case "resetpassword":
		uname, pwd, err := parseCredentials("resetpassword", args[2:])
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, uname, pwd)
	case "revoke":
		revokeCmd := flag.NewFlagSet("revoke", flag.ContinueOnError)
		revokeUname := revokeCmd.String("username", "", "The admin's username.")
		if err := parseFlags(revokeCmd, args[2:]); err != nil {
			return err
		}
		if *revokeUname == "" {
			revokeCmd.Usage()
			return errHelp
		}
		return cli.revoke(ctx, *revokeUname)
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo|reset|status|version")
			return errHelp
		}
		return cli.migrate(ctx, args[2], args[3:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// parseCredentials reads the -username flag then prompts for the password.
func parseCredentials(name string, args []string) (string, string, error) {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	uname := cmd.String("username", "", "The admin's username. The password will be prompted next.")
	if err := parseFlags(cmd, args); err != nil {
		return "", "", err
	}
	if *uname == "" {
		cmd.Usage()
		return "", "", errHelp
	}

	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", "", errHelp
	}
	return *uname, string(pwd), nil
}

// describe turns field validation errors into a readable message.
func (cli *commandLine) describe(err error) error {
	verrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
	}
	return errors.New(strings.Join(msgs, "; "))
}
