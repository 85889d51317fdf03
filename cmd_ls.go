package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [folder-id]",
	Short: "List a folder of the remote store (root when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLs,
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	folder := ""
	if len(args) == 1 {
		folder = args[0]
	}

	items, err := a.gateway.ListChildren(ctx, folder)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tID\tSIZE\tMODIFIED")
	for _, item := range items {
		modified := ""
		if !item.Modified.IsZero() {
			modified = item.Modified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", item.Kind, item.Name, item.ID, item.Size, modified)
	}
	return w.Flush()
}
