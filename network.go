package edgedriver

import (
	"context"
)

// NetworkConditions are the network emulation settings of a Chromium
// session. Throughputs are in bytes per second and latency in milliseconds.
type NetworkConditions struct {
	Offline            bool    `json:"offline"`
	Latency            float64 `json:"latency"`
	DownloadThroughput float64 `json:"download_throughput,omitempty"`
	UploadThroughput   float64 `json:"upload_throughput,omitempty"`

	// Throughput sets both the download and upload throughput.
	Throughput float64 `json:"throughput,omitempty"`
}

// GetNetworkConditions returns the network emulation settings. The remote
// end fails when none have been set.
func (d *Driver) GetNetworkConditions(ctx context.Context) (*NetworkConditions, error) {
	nc := new(NetworkConditions)
	if err := d.execute(ctx, CommandGetNetworkConditions, nil, nc); err != nil {
		return nil, err
	}
	return nc, nil
}

// SetNetworkConditions sets the network emulation settings, for example:
//
//	d.SetNetworkConditions(ctx, &NetworkConditions{
//		Latency:            5,
//		DownloadThroughput: 500 * 1024,
//		UploadThroughput:   500 * 1024,
//	})
func (d *Driver) SetNetworkConditions(ctx context.Context, nc *NetworkConditions) error {
	return d.execute(ctx, CommandSetNetworkConditions, map[string]interface{}{
		"network_conditions": nc,
	}, nil)
}

// DeleteNetworkConditions removes the network emulation settings.
func (d *Driver) DeleteNetworkConditions(ctx context.Context) error {
	return d.execute(ctx, CommandDeleteNetworkConditions, nil, nil)
}
