package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/spf13/cobra"
)

var distributeFlags struct {
	document string
	roster   string
	period   string
	out      string
	notify   bool
}

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Upload one payslip per roster row and write the link report",
	Long: `Split the payslip PDF by UAN, upload each employee's page into the
period folder, and write the four-column report (Employee Name,
Employee no, UAN, Drive Link) as an xlsx workbook.`,
	Args: cobra.NoArgs,
	RunE: runDistribute,
}

func init() {
	f := distributeCmd.Flags()
	f.StringVar(&distributeFlags.document, "document", "", "multi-page payslip PDF")
	f.StringVar(&distributeFlags.roster, "roster", "", "employee roster (xlsx or csv)")
	f.StringVar(&distributeFlags.period, "period", "", `pay period, e.g. "March 2024" (default previous month)`)
	f.StringVarP(&distributeFlags.out, "out", "o", "payslip_report.xlsx", "report output path")
	f.BoolVar(&distributeFlags.notify, "notify", false, "send the SMS links once the report is written")
	distributeCmd.MarkFlagRequired("document")
	distributeCmd.MarkFlagRequired("roster")
}

func runDistribute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if distributeFlags.notify && a.dispatcher == nil {
		return fmt.Errorf("--notify needs sms.enabled in %s", configPath)
	}

	document, err := os.ReadFile(distributeFlags.document)
	if err != nil {
		return err
	}
	records, err := readRoster(distributeFlags.roster)
	if err != nil {
		return err
	}

	period := distributeFlags.period
	if period == "" {
		period = a.cfg.Distribution.Period
	}

	run, err := a.distributor.Run(ctx, service.DistributionInput{
		Owner:        "cli",
		Period:       period,
		ParentID:     a.cfg.Distribution.ParentID,
		DocumentName: filepath.Base(distributeFlags.document),
		Document:     document,
		Records:      records,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ev := range run.Events {
		fmt.Fprintln(out, ev.String())
	}

	if err := writeFile(distributeFlags.out, func(f *os.File) error {
		return service.WriteReportXLSX(f, run.Report)
	}); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(out, "Report written to %s\n", distributeFlags.out)

	if distributeFlags.notify {
		log, err := a.dispatcher.Dispatch(ctx, run.Report, run.Period)
		if log != nil {
			printDispatchSummary(cmd, log)
		}
		return err
	}
	return nil
}

func readRoster(path string) ([]*model.RosterRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return service.ReadRoster(f, filepath.Base(path))
}

// writeFile creates path and removes it again when write fails.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
