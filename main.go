package main

import (
	cmd "github.com/cardledger/cardledger/cmd/cardledger"
	"github.com/cardledger/cardledger/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting cardledger")
	cmd.Execute()
}
