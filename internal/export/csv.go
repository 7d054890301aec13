package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nibzard/roadmap-go/internal/schedule"
)

var csvHeader = []string{"id", "title", "category", "start", "end", "status", "conflict", "reason"}

func writeCSV(w io.Writer, tasks []schedule.ScheduledTask) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{
			t.ID,
			t.Title,
			t.Category,
			schedule.FormatDate(t.Start),
			schedule.FormatDate(t.End),
			string(t.Status),
			strconv.FormatBool(t.Conflict),
			t.Reason,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
