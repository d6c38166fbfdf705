//go:build !linux && !darwin

package metadata

import (
	"os"
	"time"
)

// accessTime falls back to the modification time where the platform stat
// structure is not known.
func accessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
