//go:build windows

package diskspace

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// CheckAvailableSpace returns an InsufficientSpaceError when the volume
// holding targetPath cannot fit requiredBytes*safetyMargin. targetPath
// does not need to exist; its directory is what gets queried. A volume
// that cannot be queried passes the check so the transfer can fail
// naturally instead.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	availableBytes := availableOnVolume(filepath.Dir(targetPath))
	if availableBytes == 0 {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if availableBytes < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           targetPath,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: availableBytes,
		}
	}
	return nil
}

// GetAvailableSpace returns the free bytes on the volume containing path,
// or 0 when it cannot be determined.
func GetAvailableSpace(path string) int64 {
	return availableOnVolume(filepath.Dir(path))
}

func availableOnVolume(dir string) int64 {
	dirPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(dirPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0
	}
	return int64(freeBytesAvailable)
}
