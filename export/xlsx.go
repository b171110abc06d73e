package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/evaltrack/backend/rubric"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var sheetNames = map[rubric.SessionType]string{
	rubric.TypeGD: "Group Discussion",
	rubric.TypePI: "Personal Interview",
}

// WriteXLSX writes rows as a workbook with one sheet per session type. A type
// without rows still gets its sheet with the header.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	byType := map[rubric.SessionType][]Row{}
	for _, r := range rows {
		byType[r.SessionType] = append(byType[r.SessionType], r)
	}

	for i, t := range []rubric.SessionType{rubric.TypeGD, rubric.TypePI} {
		name := sheetNames[t]
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet: %w", err)
		}
		if err := writeSheet(f, name, t, byType[t]); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t rubric.SessionType, rows []Row) error {
	categories := rubric.ForType(t)

	header := []any{"Date", "Trainer"}
	if t == rubric.TypeGD {
		header = append(header, "Group", "Topic")
	}
	header = append(header, "Chest No", "Name", "Email", "Specialization")
	for _, c := range categories {
		header = append(header, fmt.Sprintf("%s (%d)", c.Name, c.Max))
	}
	header = append(header, "Total", "Max", "Remarks")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		line := []any{r.Date.Format("2006-01-02"), r.Trainer}
		if t == rubric.TypeGD {
			line = append(line, r.GroupName, r.Topic)
		}
		line = append(line, r.ChestNumber, r.Name, r.Email, r.Specialization)
		for _, c := range categories {
			line = append(line, r.Scores[c.ID])
		}
		line = append(line, r.Total, r.MaxTotal, strings.TrimSpace(r.Remarks))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return nil
}
