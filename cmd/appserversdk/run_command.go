package main

// file: cmd/appserversdk/run_command.go

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkoosis/appserversdk"
	"github.com/dkoosis/appserversdk/internal/config"
)

// findConfigFile resolves a run-profile path the same way the teacher's CLI
// resolved its server config: an explicit path if given and present,
// otherwise a short list of standard locations.
func findConfigFile(specifiedPath string) string {
	if specifiedPath != "" {
		if _, err := os.Stat(specifiedPath); err == nil {
			return specifiedPath
		}
	}
	for _, candidate := range []string{"appserversdk.yaml", filepath.Join("configs", "appserversdk.yaml")} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return specifiedPath
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to a run-profile YAML file")
	cwd := fs.String("cwd", ".", "Working directory for the spawned thread")
	prompt := fs.String("prompt", "", "Prompt to run")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall timeout for the run")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("fs.Parse: %w", err)
	}
	if *prompt == "" {
		return fmt.Errorf("run: -prompt is required")
	}

	profile, err := config.LoadRunProfile(findConfigFile(*configPath))
	if err != nil {
		return fmt.Errorf("config.LoadRunProfile: %w", err)
	}

	client := appserversdk.New(appserversdk.Options{Profile: *profile})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := client.Run(ctx, *cwd, *prompt)
	shutdownErr := client.Shutdown(context.Background())
	if err != nil {
		return fmt.Errorf("client.Run: %w", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("client.Shutdown: %w", shutdownErr)
	}

	fmt.Println(result.AssistantText)
	return nil
}
