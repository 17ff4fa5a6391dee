package influxdb

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Measurement names for polling loop activity.
const (
	measurementPolls      = "portal_polls"
	measurementEvents     = "portal_events"
	measurementFaults     = "portal_faults"
	measurementResolution = "portal_resolution_errors"
)

// Recorder converts polling loop activity into InfluxDB points. It
// satisfies the controller's Metrics interface.
//
// Writes go through the client's non-blocking batched write API, so each
// call is cheap enough to run inline on the polling goroutine. Points are
// flushed on the client's batch schedule and on Close.
type Recorder struct {
	client *Client
}

// NewRecorder creates a recorder writing through the given client.
func NewRecorder(client *Client) *Recorder {
	return &Recorder{client: client}
}

// PollCompleted records one device poll, quiet or not.
func (r *Recorder) PollCompleted() {
	r.write(measurementPolls, nil)
}

// EventHandled records a handled tag transition.
func (r *Recorder) EventHandled(removed bool) {
	action := "added"
	if removed {
		action = "removed"
	}
	r.write(measurementEvents, map[string]string{"action": action})
}

// FaultOccurred records one hard device fault.
func (r *Recorder) FaultOccurred() {
	r.write(measurementFaults, nil)
}

// ResolutionFailed records a tag that could not be resolved.
func (r *Recorder) ResolutionFailed() {
	r.write(measurementResolution, nil)
}

func (r *Recorder) write(measurement string, tags map[string]string) {
	if r.client == nil || !r.client.IsConnected() {
		return
	}

	point := influxdb2.NewPoint(
		measurement,
		tags,
		map[string]any{"count": 1},
		time.Now(),
	)
	r.client.writeAPI.WritePoint(point)
}
