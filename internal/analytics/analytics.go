// Package analytics holds the reference AnalyticsProvider: a mutex-guarded
// holder for the metadata blob attached to outgoing requests.
package analytics

import (
	"encoding/json"
	"fmt"
	"sync"
)

// DeviceInfo describes the client for analytics purposes.
type DeviceInfo struct {
	AppName    string `json:"appName"`
	AppVersion string `json:"appVersion"`
	OS         string `json:"os"`
	OSVersion  string `json:"osVersion,omitempty"`
	DeviceID   string `json:"deviceID,omitempty"`
}

// DeviceProvider implements auth.AnalyticsProvider. It starts empty;
// requests carry no metadata header until SetDeviceInfo or SetMetadata is
// called.
type DeviceProvider struct {
	mu       sync.RWMutex
	metadata string
}

// NewDeviceProvider creates an empty provider.
func NewDeviceProvider() *DeviceProvider {
	return &DeviceProvider{}
}

// SetDeviceInfo serializes info as the metadata blob.
func (p *DeviceProvider) SetDeviceInfo(info DeviceInfo) error {
	enc, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal device info: %w", err)
	}
	p.SetMetadata(string(enc))
	return nil
}

// SetMetadata replaces the metadata blob verbatim. An empty string clears it.
func (p *DeviceProvider) SetMetadata(metadata string) {
	p.mu.Lock()
	p.metadata = metadata
	p.mu.Unlock()
}

// CurrentMetadata returns the blob, if one has been set.
func (p *DeviceProvider) CurrentMetadata() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.metadata == "" {
		return "", false
	}
	return p.metadata, true
}
