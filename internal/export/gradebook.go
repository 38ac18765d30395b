// Package export reads and writes class data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of files written by WriteGradebook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	matrixSheet = "Gradebook"
	detailSheet = "Grades"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// GradebookFilename suggests a download name for the gradebook of class.
func GradebookFilename(class model.Class) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(class.Name, "_"), "_")
	if name == "" {
		name = fmt.Sprintf("class_%d", class.ID)
	}
	return fmt.Sprintf("gradebook_%s.xlsx", name)
}

// WriteGradebook writes gb as an XLSX workbook with two sheets: a
// student × assignment score matrix with per-student averages, and a flat
// list of every grade with its feedback.
func WriteGradebook(w io.Writer, gb *model.Gradebook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", matrixSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeMatrix(f, gb, bold); err != nil {
		return err
	}
	if err := writeDetail(f, gb, bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type gradeKey struct{ studentID, assignmentID int }

func writeMatrix(f *excelize.File, gb *model.Gradebook, headerStyle int) error {
	headers := make([]interface{}, 0, len(gb.Assignments)+2)
	headers = append(headers, "Student")
	for _, a := range gb.Assignments {
		headers = append(headers, a.Title)
	}
	headers = append(headers, "Average")
	if err := f.SetSheetRow(matrixSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(matrixSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	scores := make(map[gradeKey]float64, len(gb.Grades))
	for _, g := range gb.Grades {
		scores[gradeKey{g.StudentID, g.AssignmentID}] = g.Score
	}

	for i, s := range gb.Students {
		row := make([]interface{}, 0, len(headers))
		row = append(row, s.Username)

		var sum float64
		var n int
		for _, a := range gb.Assignments {
			score, ok := scores[gradeKey{s.ID, a.ID}]
			if !ok {
				row = append(row, nil)
				continue
			}
			row = append(row, score)
			sum += score
			n++
		}
		if n > 0 {
			row = append(row, sum/float64(n))
		} else {
			row = append(row, nil)
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(matrixSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetColWidth(matrixSheet, "A", "A", 24)
}

func writeDetail(f *excelize.File, gb *model.Gradebook, headerStyle int) error {
	headers := []interface{}{"Student", "Assignment", "Score", "Feedback", "Updated"}
	if err := f.SetSheetRow(detailSheet, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(detailSheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	names := make(map[int]string, len(gb.Students))
	for _, s := range gb.Students {
		names[s.ID] = s.Username
	}
	titles := make(map[int]string, len(gb.Assignments))
	for _, a := range gb.Assignments {
		titles[a.ID] = a.Title
	}

	for i, g := range gb.Grades {
		student, ok := names[g.StudentID]
		if !ok {
			// Graded before leaving the class.
			student = fmt.Sprintf("student #%d", g.StudentID)
		}
		var feedback string
		if g.Feedback != nil {
			feedback = *g.Feedback
		}
		row := []interface{}{student, titles[g.AssignmentID], g.Score, feedback, g.UpdatedAt.UTC().Format("2006-01-02 15:04")}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(detailSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetColWidth(detailSheet, "D", "D", 48)
}
