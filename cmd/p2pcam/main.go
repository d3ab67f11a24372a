// p2pcam retrieves still images from low-cost "P2P" UDP cameras.
//
// Usage:
//
//	p2pcam [--config FILE] [--ip-address IP] <command>
//
// Commands:
//
//	snapshot   Retrieve one image and write it to a file
//	watch      Stream images, saving and/or publishing each one to MQTT
//	serve      Serve the current image over HTTP
//	config     Show the effective configuration
//
// Example:
//
//	p2pcam --ip-address 192.168.1.20 snapshot -o porch.jpg
package main

import (
	"context"
	"os"

	"github.com/backkem/p2pcam/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
