package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/uptimer/internal/domain/monitor"
	"github.com/alexisbeaulieu97/uptimer/internal/engine"
)

// pipelineFile is the YAML shape `check` reads: a standalone monitor
// definition evaluated once, outside the scheduler and storage contract
// entirely.
type pipelineFile struct {
	Name     string              `yaml:"name"`
	URL      string              `yaml:"url"`
	Pipeline []monitor.StageSpec `yaml:"pipeline"`
}

func newCheckCmd(root *rootFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one pipeline definition once and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a standalone pipeline YAML file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runCheck(cmd *cobra.Command, root *rootFlags, configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("reading pipeline file: %w", err)
	}

	var pf pipelineFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("parsing pipeline file: %w", err)
	}
	if len(pf.Pipeline) == 0 {
		return fmt.Errorf("pipeline file declares no stages")
	}

	ctx := cmd.Context()
	app, err := newAppContext(ctx, root.verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	m := monitor.Monitor{
		ID:       "adhoc",
		Name:     pf.Name,
		URL:      pf.URL,
		Pipeline: pf.Pipeline,
		Enabled:  true,
	}

	exec := engine.New(app.registry, nil, app.log, nil)
	result, err := exec.Run(ctx, m)
	encoded, marshalErr := json.MarshalIndent(result, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("encoding result: %w", marshalErr)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

	return err
}
