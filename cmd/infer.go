package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aryanzkys/apatte-pitbox/app"
	"github.com/aryanzkys/apatte-pitbox/config"
	"github.com/aryanzkys/apatte-pitbox/core/model"
)

var samplePath string

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Run one advisory cycle on a telemetry sample",
	Long:  "Reads a telemetry JSON object from --sample (or stdin) and prints the fused decision.",
	RunE:  runInfer,
}

func init() {
	inferCmd.Flags().StringVarP(&samplePath, "sample", "s", "", "telemetry JSON file (defaults to stdin)")
	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// One-shot runs never need the broker or the periodic trigger.
	cfg.MQTT.Broker = ""
	cfg.Trigger.Enabled = false
	cfg.API.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "service close: %v\n", cerr)
		}
	}()

	var in io.Reader = cmd.InOrStdin()
	if samplePath != "" {
		f, err := os.Open(samplePath)
		if err != nil {
			return fmt.Errorf("open sample: %w", err)
		}
		defer f.Close()
		in = f
	}
	var sample model.TelemetrySample
	if err := json.NewDecoder(in).Decode(&sample); err != nil {
		return fmt.Errorf("decode sample: %w", err)
	}

	decision := svc.Engine.RunCycle(context.Background(), sample)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}
