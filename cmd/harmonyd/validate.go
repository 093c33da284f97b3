package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/activeharmony/harmony/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Args:  cobra.NoArgs,
	Short: "Load and validate a session manifest",
	Long:  `Parses the manifest's dimension list and configuration block, builds the resulting space, and prints it without starting a session.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("manifest", "", "path to the session manifest YAML file")
	_ = validateCmd.MarkFlagRequired("manifest")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("manifest")
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	sp, err := m.BuildSpace()
	if err != nil {
		return fmt.Errorf("validate: building space: %w", err)
	}
	cfg := m.BuildConfiguration()

	fmt.Printf("space: %s\n", sp.String())
	fmt.Printf("dimensions: %d\n", sp.Len())
	fmt.Printf("strategy: %s\n", orDefault(cfg.Get("STRATEGY"), "(unset)"))
	fmt.Printf("layers: %s\n", orDefault(cfg.Get("LAYERS"), "(none)"))
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
