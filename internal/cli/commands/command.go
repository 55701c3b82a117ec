package commands

import (
	"ImageHub/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage возвращается командой при неверных аргументах; диспетчер печатает Usage.
var ErrUsage = errors.New("usage")

// Command — подкоманда CLI.
type Command interface {
	// Name — имя, которое вводит пользователь, например "login".
	Name() string
	Description() string
	// Usage — строка использования, например "login <username> <password>".
	Usage() string
	// Run выполняет команду; args без имени команды.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// RegisterCmd добавляет команду в реестр; вызывается из init() файла команды.
func RegisterCmd(cmd Command) {
	registry[strings.ToLower(cmd.Name())] = cmd
}

func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List возвращает команды, отсортированные по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// разделы справки; команда без раздела попадает в "Other"
var sections = []struct {
	title string
	names []string
}{
	{"Account", []string{"login", "logout", "whoami", "passwd"}},
	{"Administration", []string{"users", "useradd", "userdel", "mkfolder", "rmfolder", "assign", "unassign"}},
	{"Folders and images", []string{"folders", "images", "upload", "import", "mockup", "rmimage"}},
}

// FormatGlobalUsage собирает общую справку по разделам.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("ImageHub CLI\n\nUsage:\n")
	b.WriteString("  imagehub [--base-url <host:port>] [--https] [--token-file <path>] <command> [args]\n")

	seen := map[string]bool{}
	writeSection := func(title string, cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, c := range cmds {
			fmt.Fprintf(&b, "  %-48s %s\n", c.Usage(), c.Description())
		}
	}
	for _, s := range sections {
		var cmds []Command
		for _, name := range s.names {
			if c, ok := Get(name); ok {
				cmds = append(cmds, c)
				seen[c.Name()] = true
			}
		}
		writeSection(s.title, cmds)
	}
	var rest []Command
	for _, c := range List() {
		if !seen[c.Name()] {
			rest = append(rest, c)
		}
	}
	writeSection("Other", rest)
	return b.String()
}
