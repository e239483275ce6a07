package polyseek

import "time"

// ServiceInfo describes one configured service and its current suspension
// state.
type ServiceInfo struct {
	Name       string
	Alias      string
	Protocol   string
	Categories []string
	Weight     float64
	Timeout    time.Duration

	Suspended       bool
	SuspendedUntil  time.Time
	SuspensionClass string
}

// Services lists the configured services sorted by name.
func (c *Client) Services() []ServiceInfo {
	entries := c.registry.All()

	out := make([]ServiceInfo, 0, len(entries))
	for _, e := range entries {
		d := e.Descriptor
		info := ServiceInfo{
			Name:       d.Name(),
			Alias:      d.Alias(),
			Protocol:   d.Protocol().String(),
			Categories: d.Categories(),
			Weight:     d.Weight(),
			Timeout:    d.Timeout(),
		}
		if until, class, ok := c.tracker.Suspension(d.Name()); ok {
			info.Suspended = true
			info.SuspendedUntil = until
			info.SuspensionClass = string(class)
		}
		out = append(out, info)
	}
	return out
}
