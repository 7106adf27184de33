package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ipcam-cli/internal/config"
)

// useCmd selects the camera later commands act on
var useCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Select the default camera",
	Long: `Checks the camera exists in the credential database and saves it as
the default for commands run without --camera.

Example:
  ipcam use Lobby`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := setupStore()

		cam, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading camera %q: %v\n", args[0], err)
			os.Exit(1)
		}

		if err := config.SaveDefaultCamera(cam.Name); err != nil {
			fmt.Printf("Failed to save configuration file: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Default camera is now %q (%s).\n", cam.Name, cam.Address)
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
