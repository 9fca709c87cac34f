package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// reportCSV renders the classified collection as a CSV projection matching
// the reviewer spreadsheet layout.
func reportCSV(posts []models.Post) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ID", "标题", "平台", "状态", "创建时间"}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, p := range posts {
		row := []string{
			p.ID,
			p.Title,
			p.Source.DisplayName(),
			string(p.Status),
			p.PublishedAt().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
