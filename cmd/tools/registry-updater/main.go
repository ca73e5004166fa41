// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"credit-risk-workers/internal/common/config"
	es "credit-risk-workers/internal/workers/credit-risk/explain-score"
	ps "credit-risk-workers/internal/workers/credit-risk/predict-score"
	"credit-risk-workers/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
	statusCmd := flag.NewFlagSet("status", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	generatePath := generateCmd.String("path", defaultRegistryPath, "Path to registry file")
	configPath := generateCmd.String("config", "", "Config file used for worker timeouts (defaults to configs/config.yaml lookup)")

	statusPath := statusCmd.String("path", defaultRegistryPath, "Path to registry file")
	statusID := statusCmd.String("id", "", "Activity ID to update")
	statusValue := statusCmd.String("value", "", "New status (planned, in-progress, completed, verified)")

	validatePath := validateCmd.String("path", defaultRegistryPath, "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		_ = generateCmd.Parse(os.Args[2:])
		err = generate(*generatePath, *configPath)
	case "status":
		_ = statusCmd.Parse(os.Args[2:])
		if *statusID == "" || *statusValue == "" {
			fmt.Println("Error: id and value are required for status.")
			statusCmd.Usage()
			os.Exit(1)
		}
		err = setStatus(*statusPath, *statusID, *statusValue)
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		err = validate(*validatePath)
	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// generate writes the activities of every credit-risk worker into the registry.
func generate(path, configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = registry.New()
	}

	reg.Upsert(ps.Activity(ps.LoadConfig(config.GetWorkerConfig(cfg, ps.TaskType))))
	reg.Upsert(es.Activity(es.LoadConfig(config.GetWorkerConfig(cfg, es.TaskType))))

	if err := reg.Validate(); err != nil {
		return fmt.Errorf("generated registry is invalid: %w", err)
	}
	if err := reg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %d activities to %s\n", len(reg.Activities), path)
	return nil
}

func setStatus(path, id, status string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.SetStatus(id, status); err != nil {
		return err
	}
	if err := reg.Save(path); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s status to %s\n", id, status)
	return nil
}

func validate(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  generate  Write the credit-risk worker activities into the registry
  status    Update an activity's implementation status
  validate  Validate the registry file
  help      Show this help message

Examples:
  registry-updater generate -path configs/activity-registry.json
  registry-updater status -id credit-risk-explain -value verified
  registry-updater validate -path configs/activity-registry.json`)
}
