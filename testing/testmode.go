// Package testing is imported for its side effect by package tests: it marks
// the process as a test run so binaries skip Postgres and Redis.
package testing

import "os"

func init() {
	_ = os.Setenv("ODYSSEY_TEST_MODE", "1")
}
