package commands

import (
	"ImageHub/internal/config"
	"ImageHub/internal/model"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ImageHub/internal/cli/api"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type loginCmd struct{}

func (loginCmd) Name() string        { return "login" }
func (loginCmd) Description() string { return "Login and store auth token" }
func (loginCmd) Usage() string       { return "login <username> <password>" }

func (loginCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	var resp loginResponse
	err := anonClient(cfg).JSON(ctx, http.MethodPost, "/api/auth/login", loginRequest{Username: args[0], Password: args[1]}, &resp)
	if api.StatusOf(err) == http.StatusUnauthorized {
		return errors.New("invalid username or password")
	}
	if err != nil {
		return err
	}
	if err := tokenStore(cfg).Save(resp.Token); err != nil {
		return fmt.Errorf("saving auth: %w", err)
	}
	if resp.User != nil {
		fmt.Fprintf(Out, "Logged in as %s (%s)\n", resp.User.Username, resp.User.Role)
	} else {
		fmt.Fprintln(Out, "Logged in successfully")
	}
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Name() string        { return "logout" }
func (logoutCmd) Description() string { return "Forget the stored auth token" }
func (logoutCmd) Usage() string       { return "logout" }

func (logoutCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	if err := tokenStore(cfg).Clear(); err != nil {
		return err
	}
	fmt.Fprintln(Out, "Logged out")
	return nil
}

type whoamiCmd struct{}

func (whoamiCmd) Name() string        { return "whoami" }
func (whoamiCmd) Description() string { return "Show the current account" }
func (whoamiCmd) Usage() string       { return "whoami" }

func (whoamiCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var u model.User
	if err := c.JSON(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return explain(err)
	}
	fmt.Fprintf(Out, "%s\t%s\t%s\n", u.ID, u.Username, u.Role)
	return nil
}

type passwdCmd struct{}

func (passwdCmd) Name() string        { return "passwd" }
func (passwdCmd) Description() string { return "Change own password" }
func (passwdCmd) Usage() string       { return "passwd <current> <new>" }

func (passwdCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var me model.User
	if err := c.JSON(ctx, http.MethodGet, "/api/auth/me", nil, &me); err != nil {
		return explain(err)
	}
	req := map[string]string{"current_password": args[0], "new_password": args[1]}
	if err := c.JSON(ctx, http.MethodPut, "/api/users/"+me.ID+"/password", req, nil); err != nil {
		return explain(err)
	}
	fmt.Fprintln(Out, "Password changed")
	return nil
}

func init() {
	RegisterCmd(loginCmd{})
	RegisterCmd(logoutCmd{})
	RegisterCmd(whoamiCmd{})
	RegisterCmd(passwdCmd{})
}
