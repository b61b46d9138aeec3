package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/orchestrator"
	"github.com/rua-build/rua/internal/remoteindex"
	"github.com/rua-build/rua/internal/rerr"
	"github.com/rua-build/rua/internal/resolver"
	"github.com/rua-build/rua/internal/termutil"
	"github.com/rua-build/rua/internal/upgrade"
)

var (
	upgradeDevel      bool
	upgradePrintOnly  bool
	upgradeIgnoreList string
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Compute outdated foreign packages and optionally install them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pm, err := newPacman(ctx)
		if err != nil {
			return err
		}
		idx := remoteindex.New(paths.IndexURL)
		planner := upgrade.New(pm, idx)

		userCfg, err := config.LoadUserConfig(paths.ConfigFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", paths.ConfigFile, err)
		}
		devel := upgradeDevel || userCfg.Devel

		extraIgnore, err := paths.ReadUserIgnoreList()
		if err != nil {
			return err
		}
		for _, n := range userCfg.IgnoredPackages {
			extraIgnore[n] = true
		}
		for _, n := range splitCSV(upgradeIgnoreList) {
			extraIgnore[n] = true
		}

		candidates, err := planner.Plan(ctx, devel, extraIgnore)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		upgrade.PrintTable(os.Stdout, candidates, nil)

		outdated := upgrade.OutdatedNames(candidates)
		if len(outdated) == 0 || upgradePrintOnly {
			return nil
		}

		auto := !termutil.StdoutIsTerminal()
		if !auto && !confirmUpgrade() {
			return rerr.New(rerr.ReviewAbort, "upgrade aborted by user")
		}

		res := resolver.New(idx, pm)
		sb, err := newSandbox(ctx)
		if err != nil {
			return err
		}

		roots := make([]string, len(outdated))
		for i, n := range outdated {
			roots[i] = string(n)
		}

		orc := orchestrator.New(paths, pm, res, recipeBaseURL(paths), sb, orchestrator.WithAuto(auto))
		return orc.Install(ctx, roots, false, true)
	},
}

func init() {
	upgradeCmd.Flags().BoolVar(&upgradeDevel, "devel", false, "treat VCS-suffixed packages as always outdated")
	upgradeCmd.Flags().BoolVar(&upgradePrintOnly, "printonly", false, "print the upgrade table without installing")
	upgradeCmd.Flags().StringVar(&upgradeIgnoreList, "ignore", "", "comma-separated extra package names to ignore")
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func confirmUpgrade() bool {
	fmt.Print("Proceed with the upgrades above? [O to continue, anything else aborts] > ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	for _, r := range line {
		if r == 'o' || r == 'O' {
			return true
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return false
}
