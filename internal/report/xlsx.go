package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hamed0406/urlcheck/internal/domain"
)

const (
	resultsSheet = "results"
	summarySheet = "summary"
)

var xlsxHeader = []string{"url", "status_code", "status_reason", "elapsed_ms", "response_size", "timestamp", "outcome", "diagnosis"}

type XLSXExporter struct {
	Options
}

func (e XLSXExporter) Export(w io.Writer, res *domain.RunResult) error {
	doc := NewDocument(res, e.Options)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	if err := writeResults(f, doc.Results); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, doc.Metadata); err != nil {
		return err
	}

	err := f.SetDocProps(&excelize.DocProperties{
		Title:   "urlcheck report",
		Creator: "urlcheck",
		Created: doc.Metadata.GeneratedAt,
	})
	if err != nil {
		return err
	}

	return f.Write(w)
}

func writeResults(f *excelize.File, rows []Row) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}
	msFmt := "#,##0.000"
	msStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &msFmt})
	if err != nil {
		return err
	}

	for i, h := range xlsxHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(resultsSheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(xlsxHeader), 1)
	if err := f.SetCellStyle(resultsSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		y := i + 2
		values := []interface{}{r.URL, nil, r.StatusReason, r.ElapsedMS, r.ResponseSize, r.Timestamp, r.Outcome, r.Diagnosis}
		if r.StatusCode != nil {
			values[1] = *r.StatusCode
		}
		for x, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(x+1, y)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	if len(rows) > 0 {
		bottom, _ := excelize.CoordinatesToCellName(4, len(rows)+1)
		if err := f.SetCellStyle(resultsSheet, "D2", bottom, msStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(resultsSheet, "A", "A", 48); err != nil {
		return err
	}
	if err := f.SetColWidth(resultsSheet, "C", "C", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(resultsSheet, "F", "F", 26); err != nil {
		return err
	}

	err = f.SetPanes(resultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return err
	}

	bottomRight, _ := excelize.CoordinatesToCellName(len(xlsxHeader), len(rows)+1)
	return f.AutoFilter(resultsSheet, "A1:"+bottomRight, nil)
}

func writeSummary(f *excelize.File, m Metadata) error {
	pairs := []struct {
		key   string
		value interface{}
	}{
		{"run_id", m.RunID},
		{"total_urls", m.TotalURLs},
		{"successful", m.Successful},
		{"failed", m.Failed},
		{"success_rate", m.SuccessRate},
		{"avg_time_ms", m.AvgTimeMS},
		{"min_time_ms", m.MinTimeMS},
		{"max_time_ms", m.MaxTimeMS},
		{"total_size_bytes", m.TotalSizeBytes},
		{"partial", m.Partial},
		{"target_count", m.TargetCount},
		{"concurrency", m.Concurrency},
		{"timeout_ms", m.TimeoutMS},
		{"generated_at", m.GeneratedAt},
	}
	for i, p := range pairs {
		row := i + 1
		k, _ := excelize.CoordinatesToCellName(1, row)
		v, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStr(summarySheet, k, p.key); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, v, p.value); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "B", 26)
}
