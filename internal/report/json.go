package report

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/hamed0406/urlcheck/internal/domain"
)

type JSONExporter struct {
	Options
}

func (e JSONExporter) Export(w io.Writer, res *domain.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res, e.Options))
}
