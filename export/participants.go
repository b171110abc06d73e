package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/evaltrack/backend/session/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// MaxImportSize bounds an uploaded participant sheet.
const MaxImportSize = 5 << 20

// ReadParticipants reads the first sheet of an xlsx workbook or a csv file
// with name, email and specialization columns. Header names are matched
// case-insensitively; only name is required. Blank rows are skipped. The
// returned participants carry no chest number.
func ReadParticipants(r io.Reader) ([]domain.Participant, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(content) > MaxImportSize {
		return nil, newErrUnsupportedFile("a file over 5 MB")
	}

	mime := mimetype.Detect(content)
	var records [][]string
	switch {
	// some writers order the zip entries so that only the container is
	// recognized
	case mime.Is(ContentTypeXLSX), mime.Is("application/zip"):
		records, err = xlsxRecords(content)
	case mime.Is("text/csv"), mime.Is("text/plain"):
		records, err = csv.NewReader(bytes.NewReader(content)).ReadAll()
		if err != nil {
			err = newErrUnsupportedFile("malformed csv").SetDebug(err)
		}
	default:
		return nil, newErrUnsupportedFile(mime.String())
	}
	if err != nil {
		return nil, err
	}
	return participantsFromRecords(records)
}

func xlsxRecords(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, newErrUnsupportedFile("unreadable xlsx").SetDebug(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	return rows, nil
}

func participantsFromRecords(records [][]string) ([]domain.Participant, error) {
	if len(records) == 0 {
		return nil, newErrMissingColumn("name")
	}
	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	nameCol, ok := cols["name"]
	if !ok {
		return nil, newErrMissingColumn("name")
	}
	cell := func(row []string, column string) string {
		i, ok := cols[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	res := []domain.Participant{}
	for _, row := range records[1:] {
		if nameCol >= len(row) || strings.TrimSpace(row[nameCol]) == "" {
			continue
		}
		res = append(res, domain.Participant{
			Name:           cell(row, "name"),
			Email:          cell(row, "email"),
			Specialization: cell(row, "specialization"),
		})
	}
	return res, nil
}
