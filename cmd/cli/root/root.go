package root

import (
	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:           "quill",
	Short:         "Quill blog CLI",
	Long:          "Command line client for the Quill blog API: sign in, then browse, search and manage posts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func GetRoot() *cobra.Command {
	return RootCmd
}
