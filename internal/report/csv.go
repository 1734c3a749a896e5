package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/hamed0406/urlcheck/internal/domain"
)

var csvHeader = []string{"url", "status_code", "status_reason", "elapsed_ms", "response_size", "timestamp", "outcome"}

type CSVExporter struct {
	Options
}

func (e CSVExporter) Export(w io.Writer, res *domain.RunResult) error {
	c := csv.NewWriter(w)

	if err := c.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range Rows(res, e.Success) {
		status := ""
		if r.StatusCode != nil {
			status = strconv.Itoa(*r.StatusCode)
		}
		err := c.Write([]string{
			r.URL,
			status,
			r.StatusReason,
			strconv.FormatFloat(r.ElapsedMS, 'f', 3, 64),
			strconv.FormatInt(r.ResponseSize, 10),
			r.Timestamp,
			r.Outcome,
		})
		if err != nil {
			return err
		}
	}

	c.Flush()
	return c.Error()
}
