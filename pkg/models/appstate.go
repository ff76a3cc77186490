package models

import (
	"github.com/cardledger/cardledger/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	SuperuserStore SuperuserStore
	Config         *config.Config
}
