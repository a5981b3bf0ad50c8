// Package main is the entry point for the memagent CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/memagent/internal/core"
	"github.com/flemzord/memagent/internal/security"
	"github.com/flemzord/memagent/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command that loads the configuration.
type globalFlags struct {
	configPath string
	dataDir    string
	logLevel   string
}

func (f *globalFlags) params(cmd *cobra.Command) (app.RunParams, error) {
	level, err := security.ParseLevel(f.logLevel)
	if err != nil {
		return app.RunParams{}, err
	}
	return app.RunParams{
		ConfigPath: f.configPath,
		DataDir:    f.dataDir,
		LogLevel:   level,
		Stdin:      cmd.InOrStdin(),
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}, nil
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "memagent",
		Short:         "A chat agent that remembers what you tell it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}
			return app.Run(params)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Directory for memories, history and the audit log")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(versionCmd(), configCmd(flags), memoriesCmd(flags))
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "memagent %s (commit: %s, built: %s)\n", version, commit, date)
			mods := core.GetModules()
			if len(mods) == 0 {
				fmt.Fprintln(w, "\nNo compiled modules.")
				return
			}
			fmt.Fprintln(w, "\nCompiled modules:")
			for _, mod := range mods {
				fmt.Fprintf(w, "  %s\n", mod.ID)
			}
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration and provision every module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				params.ConfigPath = args[0]
			}

			rt, err := app.Setup(cmd.Context(), params)
			if err != nil {
				return err
			}
			defer rt.Close()

			return printConfigSummary(cmd.OutOrStdout(), rt)
		},
	})
	return cmd
}

// printConfigSummary lists the loaded modules with their settings redacted,
// so the output is safe to paste into a bug report.
func printConfigSummary(w io.Writer, rt *app.Runtime) error {
	source := rt.ConfigPath
	if source == "" {
		source = "built-in defaults"
	}
	mods, err := rt.ModuleSettings()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Configuration OK (%s, %d modules)\n", source, len(mods))
	for _, mod := range mods {
		fmt.Fprintf(w, "  %s\n", mod.ID)
		if len(mod.Settings) == 0 {
			continue
		}
		data, err := yaml.Marshal(mod.Settings)
		if err != nil {
			return fmt.Errorf("rendering %s settings: %w", mod.ID, err)
		}
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintf(w, "User: %s\nModel: %s\n", rt.Agent.UserID(), rt.Agent.ModelName())
	if names := rt.CredentialNames(); len(names) > 0 {
		fmt.Fprintf(w, "Credentials: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func memoriesCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Inspect stored memories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every memory stored for the configured user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := app.Setup(ctx, params)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(cmd.OutOrStdout(), rt.Agent.ListMemories(ctx))
			return nil
		},
	})
	return cmd
}
