// cmd/server/main.go builds the bare API server binary. The full
// vyapar CLI (cmd/vyapar) wraps the same server plus the datastore
// management commands; deploys that only need the HTTP service can
// ship this smaller binary instead.
package main

import (
	"log"

	"github.com/shashiranjanraj/vyapar/internal/server"
)

func main() {
	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}
