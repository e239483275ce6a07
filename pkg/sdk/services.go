package sdk

import (
	"context"
	"net/http"
	"time"
)

// ServiceInfo is one entry of the service listing.
type ServiceInfo struct {
	Name       string   `json:"name"`
	Alias      string   `json:"alias,omitempty"`
	Protocol   string   `json:"protocol"`
	Categories []string `json:"categories,omitempty"`
	Weight     float64  `json:"weight"`
	TimeoutMs  int64    `json:"timeout_ms"`

	Suspended       bool       `json:"suspended"`
	SuspendedUntil  *time.Time `json:"suspended_until,omitempty"`
	SuspensionClass string     `json:"suspension_class,omitempty"`
}

// ListServices returns the configured services and their suspension state.
func (c *Client) ListServices(ctx context.Context) ([]ServiceInfo, error) {
	var resp struct {
		Items []ServiceInfo `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/services", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}
