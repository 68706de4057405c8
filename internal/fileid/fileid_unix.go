//go:build !windows

package fileid

import (
	"fmt"
	"os"
	"syscall"
)

func fromFileInfo(fi os.FileInfo) (ID, uint64, error) {
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return ID{}, 0, fmt.Errorf("fileid: no syscall.Stat_t for %s", fi.Name())
	}
	return ID{Dev: uint64(sys.Dev), Ino: sys.Ino}, uint64(sys.Nlink), nil
}
