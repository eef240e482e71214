package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/camgrid/internal/api/models"
	"github.com/smazurov/camgrid/internal/logging"
)

// registerLogRoutes registers the buffered log listing endpoint.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Return recent log records from the in-memory ring buffer, oldest first",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"0" minimum:"0" doc:"Maximum records to return, 0 for all buffered"`
	}) (*models.LogsResponse, error) {
		data := models.LogsData{Entries: []models.LogEntry{}}

		if buffer := logging.GetBuffer(); buffer != nil {
			entries := buffer.ReadAll()
			if input.Limit > 0 && len(entries) > input.Limit {
				entries = entries[len(entries)-input.Limit:]
			}
			for _, e := range entries {
				data.Entries = append(data.Entries, models.LogEntry{
					Timestamp:  e.Timestamp.Format(time.RFC3339Nano),
					Level:      e.Level,
					Module:     e.Module,
					Message:    e.Message,
					Attributes: e.Attributes,
				})
			}
		}
		data.Count = len(data.Entries)

		return &models.LogsResponse{Body: data}, nil
	})
}
