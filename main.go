package main

import "ipcam-cli/cmd"

func main() {
	cmd.Execute()
}
