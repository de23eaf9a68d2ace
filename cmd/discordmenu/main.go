// Package main is the entry point of the discordmenu bot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/small-frappuccino/discordmenu/pkg/app"
	"github.com/small-frappuccino/discordmenu/pkg/files"
	"github.com/small-frappuccino/discordmenu/pkg/util"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("Fatal", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "discordmenu",
		Short:         "Discord bot serving stateless reaction menus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default "+util.ConfigFilePath()+")")
	root.PersistentFlags().String("env-file", "", "extra .env file loaded before the token lookup")
	root.AddCommand(versionCmd(), runCmd(), configCmd())
	return root
}

func configPath(cmd *cobra.Command) (string, error) {
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		if err := util.LoadDotEnv(envFile); err != nil {
			return "", err
		}
	}
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p, nil
	}
	return util.EnvString("DISCORDMENU_CONFIG", util.ConfigFilePath()), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "discordmenu %s\n", app.Version)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve menus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return app.Run(ctx, path)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the config file and print it with defaults applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}
			cfg, err := files.LoadConfig(path)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}
