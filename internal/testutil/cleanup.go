// Package testutil provides helpers shared by the examples.
package testutil

import "os"

// RemoveAll removes path and anything below it, ignoring errors.
//
//	defer testutil.RemoveAll(tmpDir)
func RemoveAll(path string) { _ = os.RemoveAll(path) }
