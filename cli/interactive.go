package cli

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

func interactive() {
	prompt := promptui.Select{
		Label: "Select Screen",
		Items: []string{"Dashboard", "Settings", "Offline Maps", "Waypoints"},
	}

	_, result, err := prompt.Run()

	if err != nil {
		fmt.Printf("Prompt failed %v\n", err)
		return
	}

	start := showMenu
	switch result {
	case "Settings":
		start = showSettings
	case "Offline Maps":
		start = showOffline
	case "Waypoints":
		start = showWaypoints
	}

	runUI(start)
}
