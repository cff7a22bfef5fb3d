package main

import (
	"fmt"
	"os"

	"github.com/matsen/litrev/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInit string

func init() {
	configCmd.Flags().StringVar(&configInit, "init", "", "Write the default pipeline config to this path")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective pipeline configuration and global settings.

The pipeline file is taken from --config, then LITREV_CONFIG, then the
"pipeline" key of ~/.config/litrev/config.yml. Without one the built-in
reference filters are used.

Examples:
  litrev config
  litrev config --human
  litrev config --init review.yml`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	GlobalPath string          `json:"global_path"`
	NCBIAPIKey string          `json:"ncbi_api_key,omitempty"`
	NCBIEmail  string          `json:"ncbi_email,omitempty"`
	Pipeline   config.Pipeline `json:"pipeline"`
	Output     string          `json:"output"`
	Inputs     []string        `json:"inputs"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configInit != "" {
		if _, err := os.Stat(configInit); err == nil {
			exitWithError(ExitConfigError, "%s already exists", configInit)
		}
		if err := config.DefaultPipeline().Save(configInit); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Printf("Wrote default pipeline config to %s\n", configInit)
		} else {
			outputJSON(StatusResponse{Status: "created", Path: configInit})
		}
		return nil
	}

	cfg := mustLoadPipeline()
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	resp := ConfigResponse{
		GlobalPath: config.GlobalConfigPath(),
		NCBIAPIKey: maskSecret(config.GetNCBIAPIKey()),
		NCBIEmail:  config.GetNCBIEmail(),
		Pipeline:   cfg,
		Output:     cfg.OutputPath(),
		Inputs:     cfg.InputPatterns(),
	}

	if humanOutput {
		fmt.Printf("global config: %s\n", resp.GlobalPath)
		fmt.Printf("ncbi api key:  %s\n", resp.NCBIAPIKey)
		fmt.Printf("ncbi email:    %s\n", resp.NCBIEmail)
		fmt.Printf("inputs:        %v\n", resp.Inputs)
		fmt.Printf("output:        %s\n\n", resp.Output)
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		fmt.Print(string(data))
	} else {
		outputJSON(resp)
	}
	return nil
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
