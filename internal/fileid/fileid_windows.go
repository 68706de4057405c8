//go:build windows

package fileid

import (
	"fmt"
	"os"
)

func fromFileInfo(fi os.FileInfo) (ID, uint64, error) {
	return ID{}, 0, fmt.Errorf("fileid: hard-link identity unsupported on windows for %s", fi.Name())
}
