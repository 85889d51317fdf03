package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/xuri/excelize/v2"
)

// columnSpec maps one canonical column to the headers accepted for it, in
// order of preference.
type columnSpec struct {
	canonical string
	aliases   []string
	required  bool
}

var rosterColumns = []columnSpec{
	{canonical: model.ColumnIdentifier, aliases: []string{"UAN", "UAN/member ID", "UAN/MEMBER ID", "UAN Member ID"}, required: true},
	{canonical: model.ColumnName, aliases: []string{"Employee Name", "Name"}},
	{canonical: model.ColumnContact, aliases: []string{"Employee no", "Employee No"}, required: true},
}

var reportColumns = []columnSpec{
	{canonical: model.ColumnName, aliases: []string{model.ColumnName}, required: true},
	{canonical: model.ColumnContact, aliases: []string{model.ColumnContact}, required: true},
	{canonical: model.ColumnIdentifier, aliases: []string{model.ColumnIdentifier}, required: true},
	{canonical: model.ColumnLink, aliases: []string{model.ColumnLink}, required: true},
}

var wholeFloat = regexp.MustCompile(`^(\d+)\.0+$`)

func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// resolveColumns returns the header index of each canonical column, or -1
// for an optional column that is absent. Exact header matches are preferred
// over case and whitespace insensitive ones.
func resolveColumns(header []string, specs []columnSpec) (map[string]int, []string) {
	exact := make(map[string]int, len(header))
	loose := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := exact[h]; !ok {
			exact[h] = i
		}
		if _, ok := loose[headerKey(h)]; !ok {
			loose[headerKey(h)] = i
		}
	}

	index := make(map[string]int, len(specs))
	var missing []string
	for _, spec := range specs {
		index[spec.canonical] = -1
		for _, alias := range spec.aliases {
			if i, ok := exact[alias]; ok {
				index[spec.canonical] = i
				break
			}
		}
		if index[spec.canonical] < 0 {
			for _, alias := range spec.aliases {
				if i, ok := loose[headerKey(alias)]; ok {
					index[spec.canonical] = i
					break
				}
			}
		}
		if index[spec.canonical] < 0 && spec.required {
			missing = append(missing, spec.canonical)
		}
	}
	return index, missing
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if m := wholeFloat.FindStringSubmatch(v); m != nil {
		return m[1]
	}
	return v
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizeRoster maps a header and its data rows onto roster records,
// preserving row order. Blank rows are dropped.
func NormalizeRoster(header []string, rows [][]string) ([]*model.RosterRecord, error) {
	index, missing := resolveColumns(header, rosterColumns)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrInvalidRoster, strings.Join(missing, ", "))
	}

	records := make([]*model.RosterRecord, 0, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		records = append(records, &model.RosterRecord{
			Row:         i + 1,
			Identifier:  cell(row, index[model.ColumnIdentifier]),
			DisplayName: cell(row, index[model.ColumnName]),
			Contact:     cell(row, index[model.ColumnContact]),
		})
	}
	return records, nil
}

// ReadRoster loads a roster from an .xlsx or .csv upload.
func ReadRoster(r io.Reader, filename string) ([]*model.RosterRecord, error) {
	table, err := readTable(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrInvalidRoster)
	}
	return NormalizeRoster(table[0], table[1:])
}

// ReadReport loads a distribution report previously produced by
// WriteReportXLSX (or an edited copy of it).
func ReadReport(r io.Reader, filename string) (*model.Report, error) {
	table, err := readTable(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrInvalidReport)
	}

	index, missing := resolveColumns(table[0], reportColumns)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing column(s) %s", ErrInvalidReport, strings.Join(missing, ", "))
	}

	report := &model.Report{}
	for _, row := range table[1:] {
		if blankRow(row) {
			continue
		}
		report.Rows = append(report.Rows, model.ReportRow{
			DisplayName: cell(row, index[model.ColumnName]),
			Contact:     cell(row, index[model.ColumnContact]),
			Identifier:  cell(row, index[model.ColumnIdentifier]),
			Link:        cell(row, index[model.ColumnLink]),
		})
	}
	return report, nil
}

func readTable(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		return cr.ReadAll()
	case ".xlsx", ".xlsm", "":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}
