package plan

import (
	"os"
	"path/filepath"

	"github.com/relinksys/hlsync/internal/herrors"
	"github.com/relinksys/hlsync/internal/logger"
)

// Execute applies steps to the directory rooted at root in order,
// stopping at the first failure. A mid-plan failure is reported as
// herrors.PartialPlanFailure together with how many steps completed and
// how many never ran; the target is never left with file data lost,
// since every step is a rename/link/unlink/mkdir/rmdir.
func Execute(root string, steps []Step) error {
	for i, s := range steps {
		if err := executeOne(root, s); err != nil {
			return &herrors.PartialPlanFailure{Completed: i, Remaining: len(steps) - i, Err: err}
		}
		logger.Trace("%s", s)
	}
	return nil
}

func executeOne(root string, s Step) error {
	abs := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }

	switch s.Kind {
	case Mkdir:
		if err := os.MkdirAll(abs(s.To), 0o755); err != nil {
			return err
		}
	case Rename:
		if err := os.Rename(abs(s.From), abs(s.To)); err != nil {
			return &herrors.TargetRenameFailed{From: s.From, To: s.To, Err: err}
		}
	case Link:
		if err := os.Link(abs(s.From), abs(s.To)); err != nil {
			return &herrors.TargetLinkFailed{From: s.From, To: s.To, Err: err}
		}
	case Unlink:
		if err := os.Remove(abs(s.From)); err != nil {
			return &herrors.TargetUnlinkFailed{Path: s.From, Err: err}
		}
	case Rmdir:
		if err := os.Remove(abs(s.To)); err != nil {
			// A directory left non-empty by a file this plan doesn't know
			// about (outside the scan's filter) is not a plan failure.
			if !os.IsExist(err) {
				logger.Warn("rmdir %s: %s", s.To, err)
			}
		}
	}
	return nil
}
