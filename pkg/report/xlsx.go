package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dbauto/orgchart/pkg/org"
)

// Column is one exportable directory field. Key matches the column
// visibility settings; Header is the spreadsheet heading.
type Column struct {
	Key    string
	Header string
	Value  func(e org.Employee) any
}

// DirectoryColumns lists every exportable field in sheet order.
var DirectoryColumns = []Column{
	{"name", "Name", func(e org.Employee) any { return e.Name }},
	{"title", "Title", func(e org.Employee) any { return e.Title }},
	{"department", "Department", func(e org.Employee) any { return e.Department }},
	{"email", "Email", func(e org.Employee) any { return e.Email }},
	{"phone", "Phone", func(e org.Employee) any { return e.Phone }},
	{"businessPhone", "Business Phone", func(e org.Employee) any { return e.BusinessPhone }},
	{"location", "Location", func(e org.Employee) any { return e.Location }},
	{"city", "City", func(e org.Employee) any { return e.City }},
	{"country", "Country", func(e org.Employee) any { return e.Country }},
	{"hireDate", "Hire Date", func(e org.Employee) any { return e.HireDate }},
	{"lastSignIn", "Last Sign-In", func(e org.Employee) any { return e.LastSignIn }},
	{"status", "Status", func(e org.Employee) any {
		if e.AccountEnabled {
			return "active"
		}
		return "disabled"
	}},
	{"licenses", "Licenses", func(e org.Employee) any { return strings.Join(e.LicenseSkus, ", ") }},
}

// visibleColumns applies the visibility map. A nil map shows everything;
// an entry set to false hides that column.
func visibleColumns(visibility map[string]bool) []Column {
	if visibility == nil {
		return DirectoryColumns
	}
	var cols []Column
	for _, c := range DirectoryColumns {
		if show, ok := visibility[c.Key]; ok && !show {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// WriteXLSX renders a report as a spreadsheet. The reason column is
// appended after the visible directory columns.
func WriteXLSX(r Report, visibility map[string]bool) ([]byte, error) {
	cols := visibleColumns(visibility)
	rows := make([][]any, 0, len(r.Entries))
	for _, e := range r.Entries {
		row := make([]any, 0, len(cols)+1)
		for _, c := range cols {
			row = append(row, c.Value(e.Employee))
		}
		row = append(row, e.Reason)
		rows = append(rows, row)
	}

	headers := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		headers = append(headers, c.Header)
	}
	headers = append(headers, "Reason")

	return writeSheet(sheetName(string(r.Kind)), headers, rows)
}

// WriteDirectoryXLSX exports the full directory with the visible columns.
func WriteDirectoryXLSX(employees []org.Employee, visibility map[string]bool) ([]byte, error) {
	cols := visibleColumns(visibility)
	rows := make([][]any, 0, len(employees))
	for _, e := range employees {
		row := make([]any, 0, len(cols))
		for _, c := range cols {
			row = append(row, c.Value(e))
		}
		rows = append(rows, row)
	}

	headers := make([]string, 0, len(cols))
	for _, c := range cols {
		headers = append(headers, c.Header)
	}
	return writeSheet("Directory", headers, rows)
}

func writeSheet(name string, headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(name, cell, cell, bold); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "A", last, 22); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetName trims and cleans a report kind into a legal sheet name.
// Excel caps sheet names at 31 characters.
func sheetName(s string) string {
	words := strings.Split(s, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	s = strings.Join(words, " ")
	if len(s) > 31 {
		s = s[:31]
	}
	return s
}
