package commands

import (
	"ImageHub/internal/config"
	"ImageHub/internal/model"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func printFolders(list []model.Folder) {
	for _, f := range list {
		fmt.Fprintf(Out, "%s\t%s\t%s\n", f.ID, f.Name, f.Slug)
	}
}

type foldersCmd struct{}

func (foldersCmd) Name() string { return "folders" }
func (foldersCmd) Description() string {
	return "List visible folders, or folders assigned to a user"
}
func (foldersCmd) Usage() string { return "folders [userID]" }

func (foldersCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	path := "/api/folders"
	if len(args) == 1 {
		path = "/api/users/" + url.PathEscape(args[0]) + "/folders"
	}
	var list []model.Folder
	if err := c.JSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return explain(err)
	}
	printFolders(list)
	return nil
}

type mkfolderCmd struct{}

func (mkfolderCmd) Name() string        { return "mkfolder" }
func (mkfolderCmd) Description() string { return "Create a folder (admin)" }
func (mkfolderCmd) Usage() string       { return "mkfolder <name>" }

func (mkfolderCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var f model.Folder
	if err := c.JSON(ctx, http.MethodPost, "/api/folders", map[string]string{"name": args[0]}, &f); err != nil {
		return explain(err)
	}
	fmt.Fprintf(Out, "Created folder %s (%s)\n", f.Name, f.ID)
	return nil
}

type rmfolderCmd struct{}

func (rmfolderCmd) Name() string        { return "rmfolder" }
func (rmfolderCmd) Description() string { return "Delete a folder with its images (admin)" }
func (rmfolderCmd) Usage() string       { return "rmfolder <folderID>" }

func (rmfolderCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := c.JSON(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return explain(err)
	}
	fmt.Fprintln(Out, "Deleted")
	return nil
}

// membership — assign и unassign отличаются только методом.
type membershipCmd struct {
	name, desc, method string
}

func (c membershipCmd) Name() string        { return c.name }
func (c membershipCmd) Description() string { return c.desc }
func (c membershipCmd) Usage() string       { return c.name + " <userID> <folderID>" }

func (c membershipCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	cl, err := authedClient(cfg)
	if err != nil {
		return err
	}
	path := "/api/folders/" + url.PathEscape(args[1]) + "/members/" + url.PathEscape(args[0])
	if err := cl.JSON(ctx, c.method, path, nil, nil); err != nil {
		return explain(err)
	}
	fmt.Fprintln(Out, "OK")
	return nil
}

func init() {
	RegisterCmd(foldersCmd{})
	RegisterCmd(mkfolderCmd{})
	RegisterCmd(rmfolderCmd{})
	RegisterCmd(membershipCmd{name: "assign", desc: "Give a user access to a folder (admin)", method: http.MethodPut})
	RegisterCmd(membershipCmd{name: "unassign", desc: "Revoke a user's access to a folder (admin)", method: http.MethodDelete})
}
