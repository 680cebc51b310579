package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configurationShowCmd represents the configuration show command
var configurationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration values and their sources",
	Long: `Show the settings read by the resolver and every configured
connection string, with the source each value came from (default, file,
dotenv or environment). Passwords are masked.

Config file location: /etc/pgconf/pgconf.yml (or PGCONF_CONFIG_PATH)

Example:
  pgconfctl configuration show
  pgconfctl configuration show --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showConfiguration(viper.GetViper(), output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show configuration: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	configurationCmd.AddCommand(configurationShowCmd)
	configurationShowCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
}

func showConfiguration(v *viper.Viper, output string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	vars := envVariables(v)
	if output == "json" {
		jsonOutput, err := cfg.FormatJSON(vars)
		if err != nil {
			return err
		}
		fmt.Println(jsonOutput)
		return nil
	}

	fmt.Print(cfg.FormatText(vars))
	return nil
}
