package utils

import "sync"

var gdalMu sync.Mutex

// ExecuteWithGdalMutex serializes calls into GDAL, which is not safe for
// concurrent access to the same dataset handle.
func ExecuteWithGdalMutex(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}
