package tfpm

import (
	"fmt"
	"os"
)

// Verbose gates Vlogf. The CLI frontend sets this from the Debug policy
// option at startup.
var Verbose bool

// Logf writes a prefixed diagnostic message to stderr. Used for every
// warning the coordinators downgrade a would-be-fatal condition to (unmet
// dependencies under NoDeps, hash mismatches under the default removal
// policy, "already installed" on a duplicate install target).
func Logf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "tfpm: "+format+"\n", args...)
}

// Vlogf writes format only when Verbose is set.
func Vlogf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}
