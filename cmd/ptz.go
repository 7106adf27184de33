package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ipcam-cli/internal/client"
	"ipcam-cli/internal/session"
	"ipcam-cli/pkg/models"
)

// Variables to hold flag values
var (
	ptzPan    float64
	ptzTilt   float64
	ptzZoom   float64
	ptzStep   float64
	ptzFields bool
)

func setupAxisClient() *client.AxisClient {
	s := settings()
	return client.New(client.ClientConfig{
		Timeout:      s.Timeout,
		SetTimeout:   s.SetTimeout,
		StrictStatus: s.StrictStatus,
		Logger:       logger,
	})
}

// openControl resolves the selected camera and opens a control-only
// session on it (no video).
func openControl(ctx context.Context) (*session.Session, session.Snapshot) {
	cam := resolveCamera(ctx, setupStore())

	sess := session.New("", cam.Endpoint(), setupAxisClient(), nil, session.Options{
		Name:   cam.Name,
		Logger: logger,
	})
	snap, err := sess.Open(ctx)
	if err != nil {
		fail("opening camera "+cam.Name, err)
	}
	return sess, snap
}

func printPosition(pos models.Position) {
	if jsonOutput {
		printJSON(pos)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PAN\tTILT\tZOOM")
	fmt.Fprintf(w, "%g\t%g\t%g\n", pos.Pan, pos.Tilt, pos.Zoom)
	w.Flush()

	if !ptzFields || len(pos.Fields) == 0 {
		return
	}

	names := make([]string, 0, len(pos.Fields))
	for name := range pos.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FIELD\tVALUE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%s\n", name, pos.Fields[name])
	}
	w.Flush()
}

// Parent Command
var ptzCmd = &cobra.Command{
	Use:   "ptz",
	Short: "Read and move the pan/tilt/zoom head",
}

var ptzGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current position",
	Run: func(cmd *cobra.Command, args []string) {
		cam := resolveCamera(cmd.Context(), setupStore())

		pos, err := setupAxisClient().GetPosition(cmd.Context(), cam.Endpoint())
		if err != nil {
			fail("reading position", err)
		}
		printPosition(pos)
	},
}

var ptzLimitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show the operating limits of each axis",
	Run: func(cmd *cobra.Command, args []string) {
		cam := resolveCamera(cmd.Context(), setupStore())

		limits, err := setupAxisClient().GetLimits(cmd.Context(), cam.Endpoint())
		if err != nil {
			fail("reading limits", err)
		}

		if jsonOutput {
			printJSON(limits)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "AXIS\tMIN\tMAX")
		fmt.Fprintf(w, "pan\t%g\t%g\n", limits.Pan.Min, limits.Pan.Max)
		fmt.Fprintf(w, "tilt\t%g\t%g\n", limits.Tilt.Min, limits.Tilt.Max)
		fmt.Fprintf(w, "zoom\t%g\t%g\n", limits.Zoom.Min, limits.Zoom.Max)
		w.Flush()
	},
}

var ptzSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Move to an absolute position",
	Example: `  ipcam ptz set --pan 45 --tilt -10 --zoom 1`,
	Run: func(cmd *cobra.Command, args []string) {
		sess, snap := openControl(cmd.Context())
		defer sess.Close()

		// axes not given keep their current value
		pan, tilt, zoom := snap.Position.Pan, snap.Position.Tilt, snap.Position.Zoom
		if cmd.Flags().Changed("pan") {
			pan = ptzPan
		}
		if cmd.Flags().Changed("tilt") {
			tilt = ptzTilt
		}
		if cmd.Flags().Changed("zoom") {
			zoom = ptzZoom
		}

		if err := sess.SetPosition(cmd.Context(), pan, tilt, zoom); err != nil {
			fail("moving camera", err)
		}
		printPosition(models.Position{Pan: pan, Tilt: tilt, Zoom: zoom})
	},
}

var ptzMoveCmd = &cobra.Command{
	Use:       "move <left|right|up|down>",
	Short:     "Nudge pan or tilt from the current position",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"left", "right", "up", "down"},
	Run: func(cmd *cobra.Command, args []string) {
		dir, err := session.ParseDirection(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		sess, _ := openControl(cmd.Context())
		defer sess.Close()

		pos, err := sess.Nudge(cmd.Context(), dir, ptzStep)
		if err != nil {
			fail("moving camera", err)
		}
		printPosition(pos)
	},
}

func init() {
	// Register Parent
	rootCmd.AddCommand(ptzCmd)

	// Register Subcommands
	ptzCmd.AddCommand(ptzGetCmd)
	ptzCmd.AddCommand(ptzLimitsCmd)
	ptzCmd.AddCommand(ptzSetCmd)
	ptzCmd.AddCommand(ptzMoveCmd)

	ptzGetCmd.Flags().BoolVar(&ptzFields, "all", false, "Also list every field the camera reported")

	ptzSetCmd.Flags().Float64Var(&ptzPan, "pan", 0, "Pan in degrees")
	ptzSetCmd.Flags().Float64Var(&ptzTilt, "tilt", 0, "Tilt in degrees")
	ptzSetCmd.Flags().Float64Var(&ptzZoom, "zoom", 0, "Zoom step")
	ptzSetCmd.MarkFlagsOneRequired("pan", "tilt", "zoom")

	ptzMoveCmd.Flags().Float64Var(&ptzStep, "step", session.DefaultStep, "Degrees to move")
}
