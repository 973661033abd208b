// Command tap is the §6 CLI surface: a thin external collaborator that
// builds a keystore.Manager and a node.Node from internal/config and
// drives them through their public API. Grounded on cmd/sage-crypto's
// rootCmd/subcommand/RunE/flag idiom.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tap",
	Short: "tap manages TAP agents, messages, and transactions",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// exitCodeFor maps an error to §6's exit code table: 0 success (no error
// reaches here), 1 configuration error, 2 command failure.
func exitCodeFor(err error) int {
	var ce *configError
	if errors.As(err, &ce) {
		return 1
	}
	return 2
}
