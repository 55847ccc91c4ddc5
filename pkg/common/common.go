// 20 Aug 2025

// Package common holds the bits every tool needs: exit codes, the
// error categories and somewhere to send warnings.
package common

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

const (
	ExitSuccess = iota
	ExitFailure
	ExitUsageError
)

// WarnOut is where warnings go. Tests point it somewhere quiet.
var WarnOut io.Writer = os.Stderr

var warnPrefix = color.New(color.FgYellow, color.Bold).SprintFunc()

// Warnf prints a warning to WarnOut. It is the single sink for
// skipped rows and other things we complain about but carry on.
func Warnf(format string, a ...any) {
	fmt.Fprintln(WarnOut, warnPrefix("Warning:"), fmt.Sprintf(format, a...))
}

// Warner is the signature of Warnf. Engines that skip rows take one
// so callers can collect or silence the messages.
type Warner func(format string, a ...any)

// Quiet is a Warner that throws everything away.
func Quiet(string, ...any) {}

// WrtTemp writes a string to a temporary file and returns
// the filename. It is used all over the place in testing.
func WrtTemp(s string) (string, error) {
	f_tmp, err := os.CreateTemp("", "_del_me_testing")
	if err != nil {
		return "", fmt.Errorf("tempfile fail")
	}

	if _, err := io.WriteString(f_tmp, s); err != nil {
		return "", fmt.Errorf("writing string to temp file %v", f_tmp.Name())
	}
	name := f_tmp.Name()
	f_tmp.Close()
	return name, nil
}
