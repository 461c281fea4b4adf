// cmd/tools/remnawave-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"remnawave-workers/internal/common/config"
	"remnawave-workers/internal/common/database"
	commonhttp "remnawave-workers/internal/common/http"
	"remnawave-workers/internal/common/logger"
	"remnawave-workers/internal/remnawave"
	"remnawave-workers/pkg/registry"
)

func main() {
	routesCmd := flag.NewFlagSet("routes", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)
	credsCmd := flag.NewFlagSet("credentials", flag.ExitOnError)

	routesOut := routesCmd.String("out", "", "Write the catalog to this file instead of stdout")
	routesVersion := routesCmd.String("version", "1.0.0", "Catalog version")

	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	runFile := runCmd.String("file", "", "Batch file (JSON)")
	runConfig := runCmd.String("config", "", "Config file (defaults to configs/config.yaml)")
	runPolicy := runCmd.String("policy", "", "Failure policy override (continue, abort)")

	credsID := credsCmd.String("id", "", "Credentials id (tenant)")
	credsURL := credsCmd.String("url", config.DefaultRemnawaveURL, "Panel API base URL")
	credsKey := credsCmd.String("key", "", "Panel API key")
	credsTTL := credsCmd.Duration("ttl", 0, "Expire the credentials after this long (0 keeps them)")
	credsConfig := credsCmd.String("config", "", "Config file (defaults to configs/config.yaml)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "routes":
		routesCmd.Parse(os.Args[2:])
		catalog, err := buildCatalog(*routesVersion, time.Now())
		if err != nil {
			fatal("Error building catalog: %v", err)
		}
		if *routesOut != "" {
			if err := registry.SaveRegistry(catalog, *routesOut); err != nil {
				fatal("Error writing catalog: %v", err)
			}
			fmt.Printf("Wrote %d routes to %s\n", len(catalog.Activities[0].Operations), *routesOut)
			return
		}
		if err := writeJSON(os.Stdout, catalog); err != nil {
			fatal("Error writing catalog: %v", err)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		stored, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fatal("Failed to load registry: %v", err)
		}
		if err := checkCatalog(stored); err != nil {
			fatal("Registry validation failed: %v", err)
		}
		fmt.Println("Registry validation passed.")

	case "run":
		runCmd.Parse(os.Args[2:])
		if *runFile == "" {
			fmt.Println("Error: -file is required for run.")
			runCmd.Usage()
			os.Exit(1)
		}
		if err := runBatch(*runFile, *runConfig, *runPolicy); err != nil {
			fatal("Batch failed: %v", err)
		}

	case "credentials":
		credsCmd.Parse(os.Args[2:])
		if *credsID == "" || *credsKey == "" {
			fmt.Println("Error: id and key are required for credentials.")
			credsCmd.Usage()
			os.Exit(1)
		}
		if err := storeCredentials(*credsConfig, *credsID, *credsURL, *credsKey, *credsTTL); err != nil {
			fatal("Storing credentials failed: %v", err)
		}
		fmt.Printf("Stored credentials for %s\n", *credsID)

	case "help":
		fallthrough
	default:
		help()
	}
}

// batchFile is the on-disk form of a batch.
type batchFile struct {
	BatchID   string                   `json:"batchId"`
	Resource  string                   `json:"resource"`
	Operation string                   `json:"operation"`
	Action    string                   `json:"action"`
	Items     []map[string]interface{} `json:"items"`
}

func runBatch(path, configPath, policy string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}
	var file batchFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if policy == "" {
		policy = cfg.Dispatch.FailurePolicy
	}

	processor, err := remnawave.NewProcessor(remnawave.ProcessorOptions{
		Credentials: remnawave.NewStaticCredentials(cfg.Remnawave.URL, cfg.Remnawave.APIKey),
		Transport:   commonhttp.NewClient(config.GetDuration(cfg.Remnawave.Timeout)),
		Policy:      remnawave.FailurePolicy(policy),
		Logger: logger.NewZapAdapter(logger.NewWithOptions(logger.Options{
			Level:  cfg.Logging.Level,
			Format: "console",
			Output: "stderr",
		})),
	})
	if err != nil {
		return err
	}

	result, runErr := processor.Run(context.Background(), remnawave.Batch{
		ID: file.BatchID,
		Selection: remnawave.Selection{
			Resource:  file.Resource,
			Operation: file.Operation,
			Action:    file.Action,
		},
		Records: file.Items,
	})
	if result != nil {
		if err := writeJSON(os.Stdout, result); err != nil {
			return err
		}
	}
	return runErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// storeCredentials provisions one tenant for the redis credentials source.
func storeCredentials(configPath, id, baseURL, apiKey string, ttl time.Duration) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	creds := remnawave.NewCredentials(baseURL, apiKey)
	return rdb.SaveHash(ctx, cfg.Credentials.RedisKeyPrefix+id, map[string]string{
		"url":    creds.BaseURL,
		"apiKey": creds.APIKey,
	}, ttl)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func help() {
	fmt.Print(`
Usage: remnawave-cli <command> [flags]

Commands:
  routes       Print the route catalog in activity registry format
  validate     Check a stored registry file against the route table
  run          Run a batch file against the configured panel
  credentials  Store tenant credentials for the redis credentials source
  help         Show this help message

Examples:
  remnawave-cli routes -out configs/activity-registry.json
  remnawave-cli validate -path configs/activity-registry.json
  remnawave-cli run -file batch.json -policy abort
  remnawave-cli credentials -id tenant-a -url https://panel.example.com/api -key secret

Use 'remnawave-cli <command> -h' for more information about a command.

`)
}
