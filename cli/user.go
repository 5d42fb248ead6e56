package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/switchyard/app/context"
	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/crypto"
	"go.hackfix.me/switchyard/db/models"
)

// The User command manages API users.
type User struct {
	Add struct {
		Name string `arg:"" help:"The unique name of the user."`
		Role string `default:"student" help:"The role of the user, which determines the routes it can access."`
	} `kong:"cmd,help='Add a new user, and print its API token.'"`
	Token struct {
		Name string `arg:"" help:"The unique name of the user."`
	} `kong:"cmd,help='Replace the API token of a user, and print the new token.'"`
	Rm struct {
		Name string `arg:"" help:"The unique name of the user."`
	} `kong:"cmd,help='Remove a user.'"`
	Ls struct{} `kong:"cmd,help='List users.'"`
}

// Run the user command.
func (c *User) Run(kctx *kong.Context, appCtx *actx.Context) error {
	dbCtx := appCtx.DB.NewContext()

	switch kctx.Args[1] {
	case "add":
		token, hash, err := crypto.NewToken()
		if err != nil {
			return aerrors.NewRuntimeError("failed generating token", err, "")
		}
		user := &models.User{Name: c.Add.Name, Role: c.Add.Role, TokenHash: hash}
		if err = user.Save(dbCtx, appCtx.DB, false); err != nil {
			return aerrors.NewRuntimeError(
				fmt.Sprintf("failed adding user '%s'", c.Add.Name), err, "")
		}
		fmt.Fprintln(appCtx.Stdout, token)
	case "token":
		token, hash, err := crypto.NewToken()
		if err != nil {
			return aerrors.NewRuntimeError("failed generating token", err, "")
		}
		user := &models.User{Name: c.Token.Name, TokenHash: hash}
		if err = user.Save(dbCtx, appCtx.DB, true); err != nil {
			return aerrors.NewRuntimeError(
				fmt.Sprintf("failed updating user '%s'", c.Token.Name), err, "")
		}
		fmt.Fprintln(appCtx.Stdout, token)
	case "rm":
		user := &models.User{Name: c.Rm.Name}
		if err := user.Delete(dbCtx, appCtx.DB); err != nil {
			return aerrors.NewRuntimeError(
				fmt.Sprintf("failed removing user '%s'", c.Rm.Name), err, "")
		}
	case "ls":
		users, err := models.Users(dbCtx, appCtx.DB, nil)
		if err != nil {
			return aerrors.NewRuntimeError("failed listing users", err, "")
		}

		data := make([][]string, len(users))
		for i, user := range users {
			data[i] = []string{user.Name, user.Role, user.CreatedAt.Format(time.DateTime)}
		}

		if len(data) > 0 {
			header := []string{"Name", "Role", "Created"}
			if err = renderTable(header, data, appCtx.Stdout); err != nil {
				return aerrors.NewRuntimeError("failed rendering table", err, "")
			}
		}
	}

	return nil
}
