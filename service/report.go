package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Payslips"

// BuildReport projects roster records onto the four report columns.
func BuildReport(records []*model.RosterRecord) *model.Report {
	report := &model.Report{Rows: make([]model.ReportRow, 0, len(records))}
	for _, rec := range records {
		report.Rows = append(report.Rows, model.ReportRow{
			DisplayName: rec.DisplayName,
			Contact:     rec.Contact,
			Identifier:  rec.Identifier,
			Link:        rec.AssignedLink,
		})
	}
	return report
}

// WriteReportXLSX writes report as a single-sheet workbook.
func WriteReportXLSX(w io.Writer, report *model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), reportSheet); err != nil {
		return err
	}

	header := make([]any, len(model.ReportColumns))
	for i, c := range model.ReportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range report.Rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.DisplayName, row.Contact, row.Identifier, row.Link}
		if err := f.SetSheetRow(reportSheet, cellRef, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

var dispatchColumns = []string{"row", "name", "phone", "status", "response"}

// WriteDispatchCSV writes the per-row notification outcomes.
func WriteDispatchCSV(w io.Writer, log *model.DispatchLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dispatchColumns); err != nil {
		return err
	}
	for _, o := range log.Outcomes {
		if err := cw.Write([]string{strconv.Itoa(o.Row), o.Name, o.Phone, o.Status, o.Response}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
