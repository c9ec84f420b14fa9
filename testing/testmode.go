// Package testing switches the process into test mode when imported, so test
// binaries that link the commands never dial real backends.
package testing

import "os"

// placeholders fill backend settings a test did not set itself.
var placeholders = map[string]string{
	"SUPABASE_URL": "http://127.0.0.1:0",
	"REDIS_ADDR":   "127.0.0.1:0",
}

func init() {
	Enable()
}

// Enable sets ETALASE_TEST_MODE and any missing backend placeholders.
func Enable() {
	_ = os.Setenv("ETALASE_TEST_MODE", "1")
	for key, value := range placeholders {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
