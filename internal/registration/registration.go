// Package registration announces this client instance to the control
// plane, once, before polling starts.
package registration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nyxflag/flagsdk/internal/transport"
)

// Registration is the one-shot announcement body: who this client is,
// which strategies it can evaluate, and how often it will poll.
type Registration struct {
	AppName      string    `json:"appName"`
	InstanceID   string    `json:"instanceId"`
	ConnectionID string    `json:"connectionId"`
	SDKVersion   string    `json:"sdkVersion"`
	Strategies   []string  `json:"strategies"`
	Started      time.Time `json:"started"`
	Interval     int64     `json:"interval"` // milliseconds
}

// New fills a Registration stamped with the current time and the SDK
// version constant.
func New(appName, instanceID, connectionID string, strategies []string, interval time.Duration) Registration {
	return Registration{
		AppName:      appName,
		InstanceID:   instanceID,
		ConnectionID: connectionID,
		SDKVersion:   transport.SDKVersion,
		Strategies:   strategies,
		Started:      time.Now().UTC(),
		Interval:     interval.Milliseconds(),
	}
}

// Register POSTs the announcement. A transport failure or non-success
// status is returned to the caller; the caller decides whether polling
// proceeds anyway.
func Register(ctx context.Context, api transport.API, reg Registration) error {
	if err := api.PostJSON(ctx, transport.RegisterPath, reg); err != nil {
		return fmt.Errorf("register client: %w", err)
	}
	log.Printf("[registration] registered app=%s instance=%s strategies=%d",
		reg.AppName, reg.InstanceID, len(reg.Strategies))
	return nil
}
