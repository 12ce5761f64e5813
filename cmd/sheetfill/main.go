// Package main provides the CLI entry point for sheetfill-go.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/config"
)

var (
	configPath string
	pretty     bool

	fs = afero.NewOsFs()
	v  = viper.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetfill",
		Short: "Fill spreadsheet templates from source workbooks",
		Long: `sheetfill-go appends rows to the sheets of an xlsx template, resolving
each column from a source workbook through a declarative YAML mapping.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file")

	rootCmd.AddCommand(newFillCmd(), newConvertCmd(), newCheckCmd())
	return rootCmd
}

// bindFlags binds the named flags of cmd to settings keys. Binding happens
// per invocation so commands sharing a flag name do not clash.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	common := map[string]string{
		"log-level": "logging.level",
		"log-json":  "logging.json",
		"log-file":  "logging.file",
	}
	for _, m := range []map[string]string{common, keys} {
		for flag, key := range m {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return fmt.Errorf("bind --%s: %w", flag, err)
			}
		}
	}
	return nil
}

// setup loads settings and builds the logger for one stage. The returned
// function closes the log file.
func setup(cmd *cobra.Command, stage string) (*config.Settings, *logrus.Entry, func(), error) {
	s, err := config.Load(fs, v, configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, closer, err := s.Logging.NewLogger(fs, cmd.ErrOrStderr(), stage, config.RunID(time.Now()))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return s, log, func() { closer.Close() }, nil
}

func missing(pairs ...string) error {
	var names []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			names = append(names, pairs[i])
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("missing required arguments: %v", names)
}

func writeJSON(w io.Writer, data []byte) error {
	_, err := fmt.Fprintln(w, string(data))
	return err
}
