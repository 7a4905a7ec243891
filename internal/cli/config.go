package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(c.settings().String())
			keys := c.settings().Keys
			printNewline()
			printKeyValue("you.com", keyStatus(keys.YouComKey))
			printKeyValue("openrouter", keyStatus(keys.OpenRouterKey))
			printKeyValue("foxit", keyStatus(keys.FoxitID+keys.FoxitSecret))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.DefaultPath())
		},
	})
	return cmd
}

func keyStatus(key string) string {
	if key == "" {
		return StyleDim.Render("not set (mock)")
	}
	return StyleSuccess.Render("set")
}
