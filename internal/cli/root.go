package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the powerbill command tree. Without a subcommand it
// starts the interactive shell.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "powerbill",
		Short: "Electricity billing with deposits, late fines and a per-bill ledger",
		Long: `powerbill tracks utility bills for general customers and administrators.
Bills are due ten days after creation; settling late adds a fine of 2% of the
amount per day. Run without arguments for the interactive menus, or use
"powerbill serve" for the JSON API.`,
		SilenceUsage: true,
		RunE:         runShell,
	}

	root.AddCommand(newShellCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newTariffCommand())
	root.AddCommand(newHashPasswordCommand())
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
