// Package audit provides an audit trail for remediation operations.
//
// Every applied decision (deleted or relabeled observation) is published as
// an event and distributed to subscriber channels, typically a file sink, so
// that destructive cleaning runs stay reviewable after the fact.
//
// Delivery is lossless: Log blocks when the pipeline is saturated, and the
// Broadcaster closes every subscriber channel once the source channel is
// closed, so a command can drain the trail completely before exiting.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/macrostat/econdata/internal/remediate"
)

// Event is one recorded remediation decision.
type Event struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	Metric    string `json:"metric"`
	Country   string `json:"country"`
	Period    string `json:"period"`
	Action    string `json:"action"`
	NewPeriod string `json:"new_period,omitempty"`
	Reason    string `json:"reason"`
}

// Logger is an interface for recording applied remediation decisions.
type Logger interface {
	// Log records one applied decision.
	Log(d remediate.Decision)
}

// channelLogger is a concrete implementation of Logger that sends events to a channel.
type channelLogger struct {
	eventChan chan Event
}

// NewLogger creates a Logger that sends events to the provided channel.
// Log blocks when the channel is full; an audit trail must not drop
// decisions, so slow sinks apply backpressure to the apply loop.
func NewLogger(eventChan chan Event) Logger {
	return &channelLogger{
		eventChan: eventChan,
	}
}

// Log sends an event for the applied decision.
func (a *channelLogger) Log(d remediate.Decision) {
	a.eventChan <- Event{
		TS:        time.Now().Format(time.RFC3339),
		Metric:    d.Metric,
		Country:   d.Country,
		Period:    d.Period,
		Action:    string(d.Action),
		NewPeriod: d.NewPeriod,
		Reason:    d.Reason,
	}
}

// Broadcaster distributes events to multiple subscriber channels.
//
// Every event from the source channel is forwarded to all subscribers.
// When the source channel is closed the subscriber channels are closed too,
// which lets subscribers finish their last write and terminate.
func Broadcaster(source <-chan Event, subs ...chan<- Event) {
	for evt := range source {
		for _, subChan := range subs {
			subChan <- evt
		}
	}
	for _, subChan := range subs {
		close(subChan)
	}
}

// FileSubscriber appends events to a file as JSON lines.
func FileSubscriber(events <-chan Event, path string) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			fmt.Printf("FileSubscriber: error marshaling JSON: %v\n", err)
			continue
		}
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("FileSubscriber: error opening file %s: %v\n", path, err)
			continue
		}
		if _, err := file.Write(append(data, '\n')); err != nil {
			fmt.Printf("FileSubscriber: error writing event: %v\n", err)
		}
		file.Close()
	}
}

// URLSubscriber sends events to an HTTP endpoint.
func URLSubscriber(events <-chan Event, url string) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			fmt.Printf("URLSubscriber: error marshaling JSON: %v\n", err)
			continue
		}
		resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Printf("URLSubscriber: error sending request to %s: %v\n", url, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
