package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "payslip-sender",
	Short: "Split a payslip batch per employee, upload it and send the links",
	Long: `payslip-sender takes one multi-page payslip PDF and an employee roster,
uploads one PDF per employee into a folder named after the pay period,
writes a report with the share links and optionally texts each link.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, distributeCmd, notifyCmd, lsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
