package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ipcam-cli/internal/store"
	"ipcam-cli/pkg/models"
)

// Variables to hold flag values
var (
	camID       uint
	camName     string
	camIP       string
	camUser     string
	camPass     string
	camShowPass bool
)

// setupStore opens the credential database and makes sure the table exists.
func setupStore() *store.Store {
	s := settings()

	db, err := store.Open(s.DBDriver, s.DBDSN)
	if err != nil {
		fmt.Printf("Error opening camera database: %v\n", err)
		os.Exit(1)
	}

	st := store.NewStore(db)
	if err := st.Migrate(); err != nil {
		fmt.Printf("Error preparing camera database: %v\n", err)
		os.Exit(1)
	}
	return st
}

// resolveCamera returns the camera named by --camera, or the default one.
func resolveCamera(ctx context.Context, st *store.Store) models.Camera {
	name := cameraName
	if name == "" {
		name = settings().DefaultCamera
	}
	if name == "" {
		fmt.Println("Error: No camera selected. Pass --camera or run 'ipcam use <name>' first.")
		os.Exit(1)
	}

	cam, err := st.Get(ctx, name)
	if err != nil {
		fmt.Printf("Error loading camera %q: %v\n", name, err)
		os.Exit(1)
	}
	return *cam
}

func printCameras(cams []models.Camera) {
	if jsonOutput {
		printJSON(cams)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	if camShowPass {
		fmt.Fprintln(w, "ID\tNAME\tIP\tUSERNAME\tPASSWORD")
		fmt.Fprintln(w, "--\t----\t--\t--------\t--------")
	} else {
		fmt.Fprintln(w, "ID\tNAME\tIP\tUSERNAME")
		fmt.Fprintln(w, "--\t----\t--\t--------")
	}

	for _, cam := range cams {
		if camShowPass {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", cam.ID, cam.Name, cam.Address, cam.Username, cam.Password)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cam.ID, cam.Name, cam.Address, cam.Username)
	}
	w.Flush()
}

// Parent Command
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage stored cameras",
	Long:  `List, add, edit and delete the cameras kept in the credential database.`,
}

var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored cameras",
	Run: func(cmd *cobra.Command, args []string) {
		st := setupStore()

		cams, err := st.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error fetching cameras: %v\n", err)
			os.Exit(1)
		}
		printCameras(cams)
	},
}

var camerasAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Store a new camera",
	Example: `  ipcam cameras add --name Lobby --ip 192.168.1.20 --username root --password secret`,
	Run: func(cmd *cobra.Command, args []string) {
		st := setupStore()

		cams, err := st.Add(cmd.Context(), models.Camera{
			Name:     camName,
			Address:  camIP,
			Username: camUser,
			Password: camPass,
		})
		if err != nil {
			fmt.Printf("Error adding camera: %v\n", err)
			os.Exit(1)
		}

		if !jsonOutput {
			fmt.Printf("Camera %q added.\n", camName)
		}
		printCameras(cams)
	},
}

var camerasEditCmd = &cobra.Command{
	Use:     "edit",
	Short:   "Replace the details of a stored camera",
	Example: `  ipcam cameras edit --id 3 --name Lobby --ip 192.168.1.21 --username root --password secret`,
	Run: func(cmd *cobra.Command, args []string) {
		st := setupStore()

		cams, err := st.Edit(cmd.Context(), camID, models.Camera{
			Name:     camName,
			Address:  camIP,
			Username: camUser,
			Password: camPass,
		})
		if err != nil {
			fmt.Printf("Error editing camera %d: %v\n", camID, err)
			os.Exit(1)
		}

		if !jsonOutput {
			fmt.Printf("Camera %d updated.\n", camID)
		}
		printCameras(cams)
	},
}

var camerasDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored camera",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := setupStore()

		cams, err := st.Delete(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error deleting camera %q: %v\n", args[0], err)
			os.Exit(1)
		}

		if !jsonOutput {
			fmt.Printf("Camera %q deleted.\n", args[0])
		}
		printCameras(cams)
	},
}

func init() {
	// Register Parent
	rootCmd.AddCommand(camerasCmd)

	// Register Subcommands
	camerasCmd.AddCommand(camerasListCmd)
	camerasCmd.AddCommand(camerasAddCmd)
	camerasCmd.AddCommand(camerasEditCmd)
	camerasCmd.AddCommand(camerasDeleteCmd)

	camerasCmd.PersistentFlags().BoolVar(&camShowPass, "show-passwords", false, "Include passwords in table output")

	for _, c := range []*cobra.Command{camerasAddCmd, camerasEditCmd} {
		c.Flags().StringVar(&camName, "name", "", "Camera name (letters, digits and _, up to 30)")
		c.Flags().StringVar(&camIP, "ip", "", "Camera IPv4 address")
		c.Flags().StringVarP(&camUser, "username", "u", "root", "Camera username")
		c.Flags().StringVarP(&camPass, "password", "p", "", "Camera password")
		_ = c.MarkFlagRequired("name")
		_ = c.MarkFlagRequired("ip")
		_ = c.MarkFlagRequired("password")
	}

	camerasEditCmd.Flags().UintVar(&camID, "id", 0, "ID of the camera to edit (see 'cameras list')")
	_ = camerasEditCmd.MarkFlagRequired("id")
}
