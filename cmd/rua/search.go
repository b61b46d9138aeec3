package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/remoteindex"
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword...>",
	Short: "Search the remote recipe index by name and description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx := remoteindex.New(paths.IndexURL)
		pkgs, err := idx.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		printSearchTable(pkgs)
		return nil
	},
}

func printSearchTable(pkgs []remoteindex.Package) {
	if len(pkgs) == 0 {
		fmt.Println("No results.")
		return
	}
	nameWidth := 4
	for _, p := range pkgs {
		if len(p.Name) > nameWidth {
			nameWidth = len(p.Name)
		}
	}
	for _, p := range pkgs {
		fmt.Printf("%-*s  %-10s  %s\n", nameWidth, p.Name, p.Version, p.Description)
	}
}
