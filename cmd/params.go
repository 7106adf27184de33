package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ipcam-cli/pkg/models"
)

var (
	paramFPS         int
	paramCompression int
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Read and change the video stream parameters",
}

var paramsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show frame rate and compression",
	Run: func(cmd *cobra.Command, args []string) {
		cam := resolveCamera(cmd.Context(), setupStore())

		params, fields, err := setupAxisClient().GetStreamParameters(cmd.Context(), cam.Endpoint())
		if err != nil {
			fail("reading stream parameters", err)
		}

		if jsonOutput {
			printJSON(fields)
			return
		}

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PARAMETER\tVALUE")
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\n", name, fields[name])
		}
		w.Flush()

		fmt.Printf("\nfps=%d compression=%d\n", params.FPS, params.Compression)
	},
}

var paramsSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Change frame rate and compression",
	Example: `  ipcam params set --fps 15 --compression 30`,
	Run: func(cmd *cobra.Command, args []string) {
		cam := resolveCamera(cmd.Context(), setupStore())
		api := setupAxisClient()

		// an omitted flag keeps the camera's current value
		if !cmd.Flags().Changed("fps") || !cmd.Flags().Changed("compression") {
			cur, _, err := api.GetStreamParameters(cmd.Context(), cam.Endpoint())
			if err != nil {
				fail("reading stream parameters", err)
			}
			if !cmd.Flags().Changed("fps") {
				paramFPS = cur.FPS
			}
			if !cmd.Flags().Changed("compression") {
				paramCompression = cur.Compression
			}
		}

		if err := api.SetStreamParameters(cmd.Context(), paramFPS, paramCompression, cam.Endpoint()); err != nil {
			fail("updating stream parameters", err)
		}

		params := models.StreamParameters{FPS: paramFPS, Compression: paramCompression}
		if jsonOutput {
			printJSON(params)
			return
		}
		fmt.Printf("Stream parameters updated: fps=%d compression=%d\n", params.FPS, params.Compression)
	},
}

func init() {
	rootCmd.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsGetCmd)
	paramsCmd.AddCommand(paramsSetCmd)

	paramsSetCmd.Flags().IntVar(&paramFPS, "fps", 0, "Frames per second")
	paramsSetCmd.Flags().IntVar(&paramCompression, "compression", 0, "Compression (0-100)")
	paramsSetCmd.MarkFlagsOneRequired("fps", "compression")
}
