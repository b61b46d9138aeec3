package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/orchestrator"
	"github.com/rua-build/rua/internal/termutil"
)

var (
	installAsDeps  bool
	installOffline bool
)

var installCmd = &cobra.Command{
	Use:   "install <target...>",
	Short: "Resolve, review, build, and install one or more packages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		res, pm, err := newResolver(ctx)
		if err != nil {
			return err
		}
		sb, err := newSandbox(ctx)
		if err != nil {
			return err
		}

		userCfg, err := config.LoadUserConfig(paths.ConfigFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", paths.ConfigFile, err)
		}
		asDeps := installAsDeps
		if !cmd.Flags().Changed("asdeps") {
			asDeps = userCfg.AsDepsDefault
		}

		auto := !termutil.StdoutIsTerminal()
		orc := orchestrator.New(paths, pm, res, recipeBaseURL(paths), sb, orchestrator.WithAuto(auto))
		return orc.Install(ctx, args, installOffline, asDeps)
	},
}

func init() {
	installCmd.Flags().BoolVar(&installAsDeps, "asdeps", false, "install root targets as dependencies")
	installCmd.Flags().BoolVarP(&installOffline, "offline", "o", false, "pre-fetch sources, then build with no network access")
}
