// Package main implements the appserversdk CLI: a thin wrapper over the
// root facade for driving a one-shot turn against a spawned app-server
// from the command line.
package main

// file: cmd/appserversdk/main.go

import (
	"fmt"
	"log"
	"os"
	"runtime"
)

var (
	version    = "dev"
	commitHash = "unknown"
	buildDate  = "unknown"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetPrefix("[appserversdk] ")

	commands := RegisterCommands()

	if len(os.Args) < 2 {
		if err := commands["help"].Run(nil); err != nil {
			log.Fatalf("main: error running help command: %v", err)
		}
		return
	}

	cmdName := os.Args[1]
	if cmdName == "-v" || cmdName == "--version" {
		printVersion()
		return
	}

	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Printf("Unknown command: %s\n\n", cmdName)
		_ = commands["help"].Run(nil)
		os.Exit(1)
	}

	if err := cmd.Run(os.Args[2:]); err != nil {
		log.Fatalf("main: error running command %q: %v", cmdName, err)
	}
}

func printVersion() {
	fmt.Printf("appserversdk\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", commitHash)
	fmt.Printf("Built:      %s\n", buildDate)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
