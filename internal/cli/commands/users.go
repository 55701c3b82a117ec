package commands

import (
	"ImageHub/internal/config"
	"ImageHub/internal/model"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

type usersCmd struct{}

func (usersCmd) Name() string        { return "users" }
func (usersCmd) Description() string { return "List all users (admin)" }
func (usersCmd) Usage() string       { return "users" }

func (usersCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var list []model.User
	if err := c.JSON(ctx, http.MethodGet, "/api/users", nil, &list); err != nil {
		return explain(err)
	}
	for _, u := range list {
		fmt.Fprintf(Out, "%s\t%s\t%s\n", u.ID, u.Username, u.Role)
	}
	return nil
}

type useraddCmd struct{}

func (useraddCmd) Name() string        { return "useradd" }
func (useraddCmd) Description() string { return "Create a member account (admin)" }
func (useraddCmd) Usage() string       { return "useradd <username> <password>" }

func (useraddCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var u model.User
	if err := c.JSON(ctx, http.MethodPost, "/api/users", loginRequest{Username: args[0], Password: args[1]}, &u); err != nil {
		return explain(err)
	}
	fmt.Fprintf(Out, "Created %s (%s)\n", u.Username, u.ID)
	return nil
}

type userdelCmd struct{}

func (userdelCmd) Name() string        { return "userdel" }
func (userdelCmd) Description() string { return "Delete a member account (admin)" }
func (userdelCmd) Usage() string       { return "userdel <userID>" }

func (userdelCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := c.JSON(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return explain(err)
	}
	fmt.Fprintln(Out, "Deleted")
	return nil
}

func init() {
	RegisterCmd(usersCmd{})
	RegisterCmd(useraddCmd{})
	RegisterCmd(userdelCmd{})
}
