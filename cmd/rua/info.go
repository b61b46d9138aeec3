package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/remoteindex"
	"github.com/rua-build/rua/internal/rerr"
)

var infoCmd = &cobra.Command{
	Use:   "info <target...>",
	Short: "Look up packages in the remote recipe index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx := remoteindex.New(paths.IndexURL)
		pkgs, err := idx.Info(cmd.Context(), args)
		if err != nil {
			return err
		}
		if len(pkgs) == 0 {
			return rerr.New(rerr.NotFound, "no results for %v", args)
		}
		for i, p := range pkgs {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			printPackage(p)
		}
		return nil
	},
}

func printPackage(p remoteindex.Package) {
	fmt.Printf("Name           : %s\n", p.Name)
	fmt.Printf("PackageBase    : %s\n", p.PackageBase)
	fmt.Printf("Version        : %s\n", p.Version)
	fmt.Printf("Description    : %s\n", p.Description)
	if len(p.Depends) > 0 {
		fmt.Printf("Depends On     : %v\n", p.Depends)
	}
	if len(p.MakeDepends) > 0 {
		fmt.Printf("Makedepends    : %v\n", p.MakeDepends)
	}
	if len(p.CheckDepends) > 0 {
		fmt.Printf("Checkdepends   : %v\n", p.CheckDepends)
	}
	if p.FirstSubmitted > 0 {
		fmt.Printf("Submitted      : %s\n", time.Unix(p.FirstSubmitted, 0).UTC().Format(time.RFC3339))
	}
	if p.LastModified > 0 {
		fmt.Printf("Last Modified  : %s\n", time.Unix(p.LastModified, 0).UTC().Format(time.RFC3339))
	}
}
