package main

// file: cmd/appserversdk/commands.go

import (
	"fmt"
)

// Command is one CLI subcommand.
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
}

// RegisterCommands returns every subcommand the CLI understands.
func RegisterCommands() map[string]Command {
	return map[string]Command{
		"run": {
			Name:        "run",
			Description: "Spawn the configured app-server, run one prompt, print the result",
			Run:         runCommand,
		},
		"version": {
			Name:        "version",
			Description: "Show version information",
			Run:         func([]string) error { printVersion(); return nil },
		},
		"help": {
			Name:        "help",
			Description: "Show help for commands",
			Run:         helpCommand,
		},
	}
}

func helpCommand([]string) error {
	fmt.Println("appserversdk — host CLI for the app-server client SDK")
	fmt.Println()
	fmt.Println("Usage: appserversdk <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	for name, cmd := range RegisterCommands() {
		fmt.Printf("  %-10s %s\n", name, cmd.Description)
	}
	return nil
}
