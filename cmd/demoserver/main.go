// Command demoserver starts the wlsession demo authorization server.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/wlsession/internal/demoserver"
	"github.com/raysh454/wlsession/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   wlsession Demo Authorization Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Printf("  POST /token       issues a bearer token (TTL %s)\n", cfg.TokenTTL)
	fmt.Println("  GET  /api/data    protected resource, 401 challenge without a token")
	fmt.Println("  POST /api/echo    protected echo endpoint")
	fmt.Println("  POST /api/upload  protected upload endpoint")
	fmt.Println("  GET  /ws/events   websocket stream of auth events")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg, logging.NewStdoutLogger("demoserver"))
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
