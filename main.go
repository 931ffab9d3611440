package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/wlsession/internal/analytics"
	"github.com/raysh454/wlsession/internal/authprovider"
	"github.com/raysh454/wlsession/internal/demoserver"
	"github.com/raysh454/wlsession/internal/logging"
	"github.com/raysh454/wlsession/internal/model"
	"github.com/raysh454/wlsession/internal/session"
	"github.com/raysh454/wlsession/internal/tokenstore"
)

// Runs the whole flow in-process: the session starts with no cached token,
// the demo server answers 401 with a bearer challenge, the provider fetches
// a token, and the original request is re-sent once with the fresh header.
func main() {
	logger := logging.NewStdoutLogger("demo")

	server := demoserver.NewDemoServer(demoserver.DefaultConfig(), logger)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close() // Close AFTER the exchange

	tmpDir, err := os.MkdirTemp("", "wlsession-demo")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	db, err := sql.Open("sqlite", filepath.Join(tmpDir, "tokens.db"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer db.Close()

	store, err := tokenstore.New(db, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	providerCfg := authprovider.DefaultConfig()
	providerCfg.TokenURL = ts.URL + "/token"
	providerCfg.ClientID = "wlsession-demo"
	provider, err := authprovider.New(providerCfg, logger, nil, store)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	metadata := analytics.NewDeviceProvider()
	_ = metadata.SetDeviceInfo(analytics.DeviceInfo{
		AppName:    "wlsession-demo",
		AppVersion: "0.1",
		OS:         "linux",
	})

	sess, err := session.New(session.Config{
		Authorization: provider,
		Analytics:     metadata,
		Logger:        logger,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer sess.Close()

	done := make(chan struct{})
	req := model.NewRequest("GET", ts.URL+"/api/data")
	task, err := sess.DataTaskWithCompletion(context.Background(), req, func(resp *model.Response, err error) {
		defer close(done)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("got %d: %s\n", resp.StatusCode, resp.Body)
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	task.Resume()
	<-done
}
