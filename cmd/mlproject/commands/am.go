package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mlproject/am"
	"github.com/teranos/mlproject/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage mlproject configuration",
	Long: `am - Manage mlproject configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (MLPROJECT_* prefix)
3. Project config (./am.toml, searched up the directory tree)
4. User config (~/.mlproject/am.toml)
5. Default values

Examples:
  mlproject am show                  # Show current configuration
  mlproject am show --format json    # Show configuration in JSON format
  mlproject am show --sources        # Show where each value comes from
  mlproject am get ingestion.seed    # Get specific config value
  mlproject am validate              # Validate current configuration
  mlproject am init                  # Write a default am.toml here`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the merged mlproject configuration from all sources",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., ingestion.source, ledger.path)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the merged configuration and report unknown keys in the config files",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default configuration file",
	Long:  "Write the default configuration to path (default ./am.toml). An existing file is only replaced with --force, keeping up to three backups.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show which configuration files are consulted",
	Args:  cobra.NoArgs,
	RunE:  runAmWhere,
}

var (
	configFormat string
	showSources  bool
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amShowCmd.Flags().BoolVar(&showSources, "sources", false, "List each setting with the source that supplied it")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Replace an existing file")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if showSources {
		return showSettingSources(cmd)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# mlproject configuration\n%s", data)

	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, string(data))

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}
	return nil
}

func showSettingSources(cmd *cobra.Command) error {
	settings, err := am.Introspect()
	if err != nil {
		return errors.Wrap(err, "failed to introspect config")
	}

	if configFormat == "json" {
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal config sources")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	data := pterm.TableData{{"KEY", "VALUE", "SOURCE", "FROM"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if !am.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	for _, path := range am.ConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		unknown, err := am.CheckUnknownKeys(path)
		if err != nil {
			return errors.Wrapf(err, "configuration file %s is not valid TOML", path)
		}
		for _, key := range unknown {
			pterm.Warning.Printfln("%s: unknown key %q is ignored", path, key)
		}
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return errors.WithHint(
			errors.Newf("%s already exists", path),
			"pass --force to replace it; the old file is kept as .back1",
		)
	}
	if err := am.WriteDefault(path); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote default configuration to %s", path)
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  [DEFAULT]  Built-in defaults")
	for _, path := range am.ConfigPaths() {
		state := "missing"
		if _, err := os.Stat(path); err == nil {
			state = "found"
		}
		fmt.Fprintf(out, "  [FILE]     %s (%s)\n", path, state)
	}
	fmt.Fprintf(out, "  [ENV]      %s_* environment variables\n", am.EnvPrefix)
	return nil
}
