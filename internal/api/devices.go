package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/camgrid/internal/api/models"
)

// registerDeviceRoutes registers the discovered device listing endpoint.
func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List devices found by subnet discovery. Stale entries are retained and reported with active=false.",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Active bool `query:"active" doc:"Only include devices seen within the staleness window"`
	}) (*models.DevicesResponse, error) {
		data := models.DevicesData{Devices: []models.DeviceInfo{}}

		if s.opts.Discovery != nil {
			for _, d := range s.opts.Discovery.Devices() {
				if input.Active && !d.Active {
					continue
				}
				data.Devices = append(data.Devices, models.DeviceInfo{
					IP:       d.IP,
					URL:      d.URL,
					Name:     d.Name,
					LastSeen: d.LastSeen,
					Active:   d.Active,
				})
			}
		}
		data.Count = len(data.Devices)

		return &models.DevicesResponse{Body: data}, nil
	})
}
