// Package export renders a schedule as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"yourday/internal/model"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Tasks"
	timeLayout  = "2006-01-02 15:04"
)

var (
	columns = []string{"Title", "Category", "Start", "End", "Description", "Notes", "Reminder"}
	widths  = []float64{32, 14, 18, 18, 40, 40, 18}
)

// NewScheduleWorkbook builds one row per task, with times rendered in loc.
// The caller must Close the returned file.
func NewScheduleWorkbook(tasks []model.Task, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f); err != nil {
		f.Close()
		return nil, err
	}

	categoryStyles, err := newCategoryStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	for i, task := range tasks {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		reminder := ""
		if task.Reminder != nil {
			reminder = task.Reminder.In(loc).Format(timeLayout)
		}
		row := []interface{}{
			task.Title,
			task.Category.Label(),
			task.StartTime.In(loc).Format(timeLayout),
			task.EndTime.In(loc).Format(timeLayout),
			task.Description,
			task.Notes,
			reminder,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}

		categoryCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if style, ok := categoryStyles[task.Category]; ok {
			if err := f.SetCellStyle(SheetName, categoryCell, categoryCell, style); err != nil {
				f.Close()
				return nil, fmt.Errorf("style row %d: %w", i+2, err)
			}
		}
	}

	return f, nil
}

// WriteSchedule writes the workbook for tasks to w.
func WriteSchedule(w io.Writer, tasks []model.Task, loc *time.Location) error {
	f, err := NewScheduleWorkbook(tasks, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File) error {
	header := make([]interface{}, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#BBDEFB"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	return f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func newCategoryStyles(f *excelize.File) (map[model.Category]int, error) {
	styles := make(map[model.Category]int)
	for _, c := range model.Categories() {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Color: []string{c.Color()}, Pattern: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("category style %s: %w", c, err)
		}
		styles[c] = style
	}
	return styles, nil
}
