package output

import (
	"encoding/json"
	"io"

	"github.com/Kamar-Folarin/team-insights/internal/models"
)

// WriteJSON writes the report as pretty-printed JSON to w.
func WriteJSON(w io.Writer, report models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
