package commands

import (
	"ImageHub/internal/config"
	"context"
	"errors"
	"fmt"
)

// Коды завершения Dispatch.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Dispatch — единая точка входа: выбирает команду по первому аргументу,
// печатает справку и ошибки в Out и возвращает код выхода процесса.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	switch name := args[0]; name {
	case "help", "-h", "--help":
		return help(args[1:])
	}

	c, ok := Get(args[0])
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	err := c.Run(ctx, cfg, args[1:])
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
		return ExitUsage
	default:
		fmt.Fprintf(Out, "%s error: %v\n", c.Name(), err)
		return ExitFailure
	}
}

// help: imagehub help [command]
func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitOK
	}
	if c, ok := Get(args[0]); ok {
		fmt.Fprintf(Out, "Usage: %s\n  %s\n", c.Usage(), c.Description())
		return ExitOK
	}
	fmt.Fprintf(Out, "Unknown command: %s\n\n", args[0])
	fmt.Fprint(Out, FormatGlobalUsage())
	return ExitUsage
}
