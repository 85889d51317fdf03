package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/spf13/cobra"
)

var notifyFlags struct {
	report string
	period string
	out    string
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Text every employee in a report their payslip link",
	Args:  cobra.NoArgs,
	RunE:  runNotify,
}

func init() {
	f := notifyCmd.Flags()
	f.StringVar(&notifyFlags.report, "report", "", "report workbook written by distribute")
	f.StringVar(&notifyFlags.period, "period", "", "pay period named in the message (default previous month)")
	f.StringVarP(&notifyFlags.out, "out", "o", "", "write per-row outcomes as CSV to this path")
	notifyCmd.MarkFlagRequired("report")
}

func runNotify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.dispatcher == nil {
		return fmt.Errorf("sms.enabled is false in %s", configPath)
	}

	f, err := os.Open(notifyFlags.report)
	if err != nil {
		return err
	}
	report, err := service.ReadReport(f, filepath.Base(notifyFlags.report))
	f.Close()
	if err != nil {
		return err
	}

	period := notifyFlags.period
	if period == "" {
		period = service.PreviousMonthPeriod(time.Now())
	}

	log, dispatchErr := a.dispatcher.Dispatch(ctx, report, period)
	if log == nil {
		return dispatchErr
	}
	printDispatchSummary(cmd, log)

	if notifyFlags.out != "" {
		if err := writeFile(notifyFlags.out, func(f *os.File) error {
			return service.WriteDispatchCSV(f, log)
		}); err != nil {
			return fmt.Errorf("write sms log: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "SMS log written to %s\n", notifyFlags.out)
	}
	return dispatchErr
}

func printDispatchSummary(cmd *cobra.Command, log *model.DispatchLog) {
	fmt.Fprintf(cmd.OutOrStdout(), "SMS for %s: %d sent, %d failed, %d skipped\n",
		log.Period, log.Sent, log.Failed, log.Skipped)
}
