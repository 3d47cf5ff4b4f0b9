package oracle_test

import (
	"github.com/rarespot/rarespot/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}
