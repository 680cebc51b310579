package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doodlesbykumbi/pgconf/pkg/connstr"
	"github.com/doodlesbykumbi/pgconf/pkg/dbconfig"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the resolved connection string",
	Long: `Print the connection string produced by applying the configured
overrides to the selected base connection string, along with the
migrations history table settings.

The password is masked unless --show-password is given.

Example:
  pgconfctl resolve
  DB_HOST=replica pgconfctl resolve --output json
  pgconfctl resolve --host-var APP_DB_HOST`,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")
		showPassword, _ := cmd.Flags().GetBool("show-password")

		if err := runResolve(viper.GetViper(), output, showPassword); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve connection: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	resolveCmd.Flags().Bool("show-password", false, "Print the password in clear text")
}

func runResolve(v *viper.Viper, output string, showPassword bool) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	vars := envVariables(v)
	res, err := dbconfig.Resolve(cfg, &vars)
	if err != nil {
		return err
	}
	out, err := formatResult(res, output, showPassword)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

type resolveOutput struct {
	ConnectionString string  `json:"connection_string"`
	HistoryTable     *string `json:"history_table"`
	HistorySchema    *string `json:"history_schema"`
}

func formatResult(res *dbconfig.Result, output string, showPassword bool) (string, error) {
	cs := res.ConnectionString
	if !showPassword {
		parsed, err := connstr.Parse(cs)
		if err != nil {
			return "", err
		}
		cs = parsed.Redacted()
	}

	switch output {
	case "json":
		data, err := json.MarshalIndent(resolveOutput{
			ConnectionString: cs,
			HistoryTable:     res.HistoryTable,
			HistorySchema:    res.HistorySchema,
		}, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "text", "":
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%-20s %s\n", "Connection string:", cs))
		sb.WriteString(fmt.Sprintf("%-20s %s\n", "History table:", orNotSet(res.HistoryTable)))
		sb.WriteString(fmt.Sprintf("%-20s %s\n", "History schema:", orNotSet(res.HistorySchema)))
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unknown output format %q", output)
	}
}

func orNotSet(s *string) string {
	if s == nil {
		return "(not set)"
	}
	return *s
}
