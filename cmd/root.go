package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ipcam-cli/internal/client"
	"ipcam-cli/internal/config"
)

var cfgFile string
var jsonOutput bool
var cameraName string

var logger = zerolog.Nop()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ipcam",
	Short: "A CLI for controlling Axis PTZ network cameras",
	Long: `Store camera credentials, move the PTZ head, tune the video stream
and watch or record the live RTSP feed of Axis network cameras.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		config.InitConfig(cfgFile)
		s := config.Load(viper.GetViper())
		logger = config.NewLogger(s.LogLevel, s.LogFormat, os.Stderr)
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ipcam/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().StringVarP(&cameraName, "camera", "c", "", "Stored camera to use (default is the one selected with 'ipcam use')")
}

func settings() config.Settings {
	return config.Load(viper.GetViper())
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// fail prints a command error and exits. Every camera error is shown as a
// lost connection, with the detail underneath.
func fail(action string, err error) {
	if client.IsNoConnection(err) {
		fmt.Println("There was no connection to the camera.")
		fmt.Printf("  %s: %v\n", action, err)
	} else {
		fmt.Printf("Error %s: %v\n", action, err)
	}
	os.Exit(1)
}
