package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for contribnet.

Load completions in the current shell:

  bash:        source <(contribnet completion bash)
  zsh:         source <(contribnet completion zsh)
  fish:        contribnet completion fish | source
  powershell:  contribnet completion powershell | Out-String | Invoke-Expression

To load them for every session, write the script to your shell's completion
directory, for example:

  contribnet completion bash > /etc/bash_completion.d/contribnet
  contribnet completion zsh > "${fpath[1]}/_contribnet"
  contribnet completion fish > ~/.config/fish/completions/contribnet.fish

Dataset arguments complete to .json, .yaml, .yml and .csv files.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// datasetCompletion completes dataset arguments to supported file types.
func datasetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"json", "yaml", "yml", "csv"}, cobra.ShellCompDirectiveFilterFileExt
}
