package ui

import (
	"fmt"
	"strings"
)

// CommandSpec is a CLI invocation derived from wizard answers.
type CommandSpec struct {
	Args []string
}

// String renders the command for display or the clipboard.
func (c CommandSpec) String() string {
	return FormatCommand(c.Args)
}

// BuildRunCommand builds the `zbncp run` invocation for a written config.
func BuildRunCommand(configPath string, a WizardAnswers) CommandSpec {
	args := []string{"zbncp", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	addStringFlag(&args, "--scenario", a.Scenario)
	if a.TUI {
		args = append(args, "--tui")
	}
	return CommandSpec{Args: args}
}

func addStringFlag(args *[]string, flag, val string) {
	if val = strings.TrimSpace(val); val != "" {
		*args = append(*args, flag, val)
	}
}

// FormatCommand joins args, quoting any that contain whitespace.
func FormatCommand(args []string) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "\"\""
	}
	if strings.ContainsAny(arg, " \t") {
		escaped := strings.ReplaceAll(arg, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", escaped)
	}
	return arg
}
