package app

import (
	"os"
	"sync"
)

// TestModeEnv disables process side effects when set to "1".
const TestModeEnv = "ODYSSEY_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether binaries should return before touching Postgres or Redis.
func InTestMode() bool {
	return testMode()
}
