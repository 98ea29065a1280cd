package cmd

import (
	"fmt"
	"os"

	"duplicate-charge-detector/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dupcheck",
	Short: "Duplicate charge detection tool",
	Long: `Dupcheck scans bank and credit-card transaction exports for charges
that were likely recorded more than once. It detects the file's column
layout, date format and amount encoding automatically, groups same-amount
transactions at the same merchant within a time window, and filters out
configured recurring pairs such as a twice-daily commute fare.

Examples:
  dupcheck analyze --input transactions.csv
  dupcheck analyze --input export.csv --rules expected.yaml --format json
  dupcheck analyze --input statement.txt --input-format statement`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("DUPCHECK")
	viper.AutomaticEnv()

	level := logger.WarnLevel
	if viper.GetBool("verbose") {
		level = logger.DebugLevel
	}
	if l, err := logger.NewLogger(&logger.Config{Level: level, Format: logger.TextFormat, Output: os.Stderr}); err == nil {
		logger.SetGlobalLogger(l)
	}
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
