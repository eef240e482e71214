package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/camgrid/internal/api/models"
)

// registerStreamRoutes registers the stream listing endpoint.
func (s *Server) registerStreamRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-streams",
		Method:      http.MethodGet,
		Path:        "/api/streams",
		Summary:     "List Streams",
		Description: "List registered streams with their grid slots, worker states, and frame counters",
		Tags:        []string{"streams"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StreamsResponse, error) {
		data := models.StreamsData{
			Streams: []models.StreamInfo{},
			Slots:   []models.SlotStats{},
		}

		if s.opts.Aggregator != nil {
			for _, w := range s.opts.Aggregator.Workers() {
				data.Streams = append(data.Streams, models.StreamInfo{
					Slot:  w.Slot,
					URL:   w.URL,
					State: w.State,
				})
			}
		}
		if s.opts.Compositor != nil {
			grid := s.opts.Compositor.Grid()
			data.Grid = models.GridInfo{
				Cols:     grid.Cols,
				Rows:     grid.Rows,
				Capacity: s.opts.Compositor.Capacity(),
			}
			for _, st := range s.opts.Compositor.SlotStats() {
				data.Slots = append(data.Slots, models.SlotStats{
					Slot:     st.Index,
					Received: st.Received,
					Dropped:  st.Dropped,
				})
			}
		}
		data.Count = len(data.Streams)

		return &models.StreamsResponse{Body: data}, nil
	})
}
