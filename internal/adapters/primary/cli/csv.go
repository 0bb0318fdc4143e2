package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/core/services"
)

const studentIDColumn = "student_id"

var errEmptyCSV = errors.New("csv has no header row")

// cellValue normalizes a raw CSV cell. Missing markers return nil so the
// feature defaults to zero when the record is built.
func cellValue(column, raw string) any {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "", "na", "nan", "none", "-":
		return nil
	case "yes", "true", "y":
		if column != studentIDColumn {
			return 1.0
		}
	case "no", "false", "n":
		if column != studentIDColumn {
			return 0.0
		}
	}
	if column == studentIDColumn {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func readRows(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, errEmptyCSV
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return header, rows, nil
}

func rowMap(header, row []string) map[string]any {
	m := make(map[string]any, len(header))
	for i, col := range header {
		if i >= len(row) || col == "" {
			continue
		}
		if v := cellValue(col, row[i]); v != nil {
			m[col] = v
		}
	}
	return m
}

// ReadStudents parses a CSV of students into raw request objects.
func ReadStudents(r io.Reader) ([]map[string]any, error) {
	header, rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowMap(header, row))
	}
	return out, nil
}

// ReadLabelled parses a CSV with an outcome column into evaluation samples.
func ReadLabelled(r io.Reader, labelColumn string) ([]services.LabelledRecord, error) {
	header, rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	labelColumn = strings.ToLower(labelColumn)

	found := false
	for _, col := range header {
		if col == labelColumn {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("label column %q not found", labelColumn)
	}

	out := make([]services.LabelledRecord, 0, len(rows))
	for i, row := range rows {
		raw := rowMap(header, row)
		label, ok := raw[labelColumn].(float64)
		if !ok || (label != 0 && label != 1) {
			return nil, fmt.Errorf("row %d: %w", i+2, domain.ErrInvalidLabel)
		}
		delete(raw, labelColumn)

		rec, err := domain.NewStudentRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, services.LabelledRecord{Record: rec, Label: int(label)})
	}
	return out, nil
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}
