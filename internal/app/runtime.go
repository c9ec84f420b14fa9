package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "ETALASE_TEST_MODE"

// InTestMode reports whether the binaries should return before touching
// Postgres, Redis or the network. The flag is read once per process.
var InTestMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	return on
})
