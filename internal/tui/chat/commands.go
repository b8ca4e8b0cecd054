package chat

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Command is a slash command typed into the input.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// AllCommands returns all available slash commands
func AllCommands() []Command {
	return []Command{
		{Name: "help", Aliases: []string{"h", "?"}, Description: "Show available commands", Usage: "/help"},
		{Name: "clear", Aliases: []string{"c"}, Description: "Clear conversation history", Usage: "/clear"},
		{Name: "category", Aliases: []string{"cat"}, Description: "Filter answers by news category", Usage: "/category [all|technology|sports|business|general]"},
		{Name: "search", Aliases: []string{"s", "find"}, Description: "Fuzzy search past messages", Usage: "/search <text>"},
		{Name: "copy", Aliases: []string{"y"}, Description: "Copy the last answer to the clipboard", Usage: "/copy"},
		{Name: "export", Description: "Export the conversation (md, json or html)", Usage: "/export [file]"},
		{Name: "stop", Description: "Stop the running answer", Usage: "/stop"},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Exit chat", Usage: "/quit"},
	}
}

// commandSource adapts commands for fuzzy matching on their names.
type commandSource []Command

func (c commandSource) String(i int) string { return c[i].Name }
func (c commandSource) Len() int            { return len(c) }

// parseCommand splits "/name args" and resolves name or alias.
func parseCommand(input string) (Command, string, bool) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "/")
	name, args, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	for _, cmd := range AllCommands() {
		if cmd.Name == name {
			return cmd, strings.TrimSpace(args), true
		}
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd, strings.TrimSpace(args), true
			}
		}
	}
	return Command{}, "", false
}

// suggestCommand returns the closest command name to a mistyped one.
func suggestCommand(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false
	}
	matches := fuzzy.FindFrom(name, commandSource(AllCommands()))
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
