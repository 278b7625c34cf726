package dashboard

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/five82/kavita/internal/results"
)

// ExportFilename is the suggested name for WriteCSV output.
const ExportFilename = "quiz_results_report.csv"

var csvHeader = []string{
	"Class",
	"Student Name",
	"Roll",
	"Chapter",
	"Score",
	"Total Questions",
	"Percent",
	"Total Time (s)",
}

// WriteCSV writes one row per record after a header row.
func WriteCSV(w io.Writer, records []results.Record, names Names) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		percent := "0"
		if r.TotalQuestions > 0 {
			percent = strconv.FormatFloat(r.Percent(), 'f', 1, 64)
		}
		row := []string{
			names.Class(r.ClassID, r.ClassName),
			r.StudentName,
			string(r.StudentRoll),
			names.Chapter(r.ClassID, r.ChapterID, r.ChapterName),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.TotalQuestions),
			percent,
			strconv.Itoa(r.TotalTimeSeconds),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
