package main

import (
	"github.com/convoy-cloud/convoy/cmd"
	"github.com/convoy-cloud/convoy/pkg/env"
	"github.com/convoy-cloud/convoy/pkg/log"
)

func main() {
	if err := env.Process(); err != nil {
		log.Fatal("environment failure", "error", err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal("convoy failure", "error", err)
	}
}
