package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/amankb/configs"
	"github.com/Aman-CERP/amankb/internal/config"
	"github.com/Aman-CERP/amankb/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the project configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/amankb/config.yaml)
  3. Project config (.amankb.yaml, .amankb.yml or .amankb.toml)
  4. Environment variables (AMANKB_*)`,
		Example: `  # Create a project config
  amankb config init

  # Show effective configuration
  amankb config show --format toml`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a project configuration file",
		Long: `Create .amankb.yaml (or .amankb.toml) in the project directory with
the default settings. An existing file is kept unless --force is given, in
which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, format, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration (a backup is kept)")
	cmd.Flags().StringVar(&format, "format", "yaml", "File format: yaml, toml")
	return cmd
}

func runConfigInit(cmd *cobra.Command, format string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	dir, err := resolveDir()
	if err != nil {
		return err
	}

	var path string
	switch format {
	case "yaml":
		path = filepath.Join(dir, ".amankb.yaml")
	case "toml":
		path = filepath.Join(dir, ".amankb.toml")
	default:
		return fmt.Errorf("invalid format %q: use yaml or toml", format)
	}

	if existing := config.ProjectConfigPath(dir); existing != "" && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("📁", "Location: %s", existing)
		out.Status("💡", "Use --force to overwrite (a backup is kept)")
		return nil
	}

	if _, err := os.Stat(path); err == nil {
		backup, err := config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		out.Statusf("💾", "Backup: %s", backup)
	}

	if format == "toml" {
		err = config.NewConfig().WriteTOML(path)
	} else {
		err = os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644)
	}
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created project configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("📋", "Run 'amankb validate' to check the sources")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the configuration after merging defaults, user and project files, and environment variables.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(cfg); err != nil {
					return err
				}
				return enc.Close()
			case "toml":
				return toml.NewEncoder(w).Encode(cfg)
			case "json":
				return output.New(w).JSON(cfg)
			default:
				return fmt.Errorf("invalid format %q: use yaml, toml or json", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, toml, json")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveDir()
			if err != nil {
				return err
			}
			project := config.ProjectConfigPath(dir)
			if project == "" {
				project = "(none)"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\nproject: %s\n", config.GetUserConfigPath(), project)
			return nil
		},
	}
}
