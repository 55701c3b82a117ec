package commands

import (
	"ImageHub/internal/config"
	"ImageHub/internal/model"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

func folderImagesPath(folderID string) string {
	return "/api/folders/" + url.PathEscape(folderID) + "/images"
}

func printImage(img model.Image) {
	fmt.Fprintf(Out, "%s\t%s\t%s\n", img.ID, img.Name, img.URL)
}

type imagesCmd struct{}

func (imagesCmd) Name() string        { return "images" }
func (imagesCmd) Description() string { return "List images in a folder, newest first" }
func (imagesCmd) Usage() string       { return "images <folderID>" }

func (imagesCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var list []model.Image
	if err := c.JSON(ctx, http.MethodGet, folderImagesPath(args[0]), nil, &list); err != nil {
		return explain(err)
	}
	for _, img := range list {
		printImage(img)
	}
	return nil
}

type uploadCmd struct{}

func (uploadCmd) Name() string        { return "upload" }
func (uploadCmd) Description() string { return "Upload an image file into a folder" }
func (uploadCmd) Usage() string       { return "upload <folderID> <file>" }

func (uploadCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	var img model.Image
	if err := c.Upload(ctx, folderImagesPath(args[0]), args[1], nil, &img); err != nil {
		return explain(err)
	}
	printImage(img)
	return nil
}

type importCmd struct{}

func (importCmd) Name() string        { return "import" }
func (importCmd) Description() string { return "Register an external image URL in a folder" }
func (importCmd) Usage() string       { return "import <folderID> <url> [name]" }

func (importCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	req := map[string]string{"url": args[1]}
	if len(args) == 3 {
		req["name"] = args[2]
	}
	var img model.Image
	if err := c.JSON(ctx, http.MethodPost, folderImagesPath(args[0])+"/import", req, &img); err != nil {
		return explain(err)
	}
	printImage(img)
	return nil
}

type mockupCmd struct{}

func (mockupCmd) Name() string        { return "mockup" }
func (mockupCmd) Description() string { return "Generate a product mockup from a source image" }
func (mockupCmd) Usage() string {
	return "mockup [--color <color>] <folderID> <file> <prompt>"
}

func (mockupCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mockup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	color := fs.String("color", "", "color variation")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	fields := map[string]string{"prompt": rest[2]}
	if *color != "" {
		fields["color"] = *color
	}
	var img model.Image
	if err := c.Upload(ctx, "/api/folders/"+url.PathEscape(rest[0])+"/mockups", rest[1], fields, &img); err != nil {
		return explain(err)
	}
	printImage(img)
	return nil
}

type rmimageCmd struct{}

func (rmimageCmd) Name() string        { return "rmimage" }
func (rmimageCmd) Description() string { return "Delete an image" }
func (rmimageCmd) Usage() string       { return "rmimage <imageID>" }

func (rmimageCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	c, err := authedClient(cfg)
	if err != nil {
		return err
	}
	if err := c.JSON(ctx, http.MethodDelete, "/api/images/"+url.PathEscape(args[0]), nil, nil); err != nil {
		return explain(err)
	}
	fmt.Fprintln(Out, "Deleted")
	return nil
}

func init() {
	RegisterCmd(imagesCmd{})
	RegisterCmd(uploadCmd{})
	RegisterCmd(importCmd{})
	RegisterCmd(mockupCmd{})
	RegisterCmd(rmimageCmd{})
}
