package analytics_test

import (
	"encoding/json"
	"testing"

	"github.com/raysh454/wlsession/internal/analytics"
)

func TestCurrentMetadata_EmptyUntilSet(t *testing.T) {
	t.Parallel()
	p := analytics.NewDeviceProvider()

	if _, ok := p.CurrentMetadata(); ok {
		t.Errorf("fresh provider should hold nothing")
	}

	p.SetMetadata(`{"k":"v"}`)
	got, ok := p.CurrentMetadata()
	if !ok || got != `{"k":"v"}` {
		t.Errorf("CurrentMetadata = %q, ok=%v", got, ok)
	}

	p.SetMetadata("")
	if _, ok := p.CurrentMetadata(); ok {
		t.Errorf("clearing should remove metadata")
	}
}

func TestSetDeviceInfo_Serializes(t *testing.T) {
	t.Parallel()
	p := analytics.NewDeviceProvider()
	err := p.SetDeviceInfo(analytics.DeviceInfo{
		AppName:    "app",
		AppVersion: "1.2",
		OS:         "linux",
	})
	if err != nil {
		t.Fatalf("SetDeviceInfo: %v", err)
	}

	blob, ok := p.CurrentMetadata()
	if !ok {
		t.Fatalf("metadata missing after SetDeviceInfo")
	}
	var info analytics.DeviceInfo
	if err := json.Unmarshal([]byte(blob), &info); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if info.AppName != "app" || info.AppVersion != "1.2" || info.OS != "linux" {
		t.Errorf("round trip lost fields: %+v", info)
	}
}
