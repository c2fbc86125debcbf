package spheretree

import (
	"fmt"

	"github.com/mitre/spheretree/errs"
)

func misuseErrf(format string, args ...any) error {
	return errs.New(errs.Misuse, fmt.Sprintf(format, args...))
}

func modeViolationErrf(format string, args ...any) error {
	return errs.New(errs.ModeViolation, fmt.Sprintf(format, args...))
}
