package main

import (
	"fmt"
	"os"

	_ "github.com/crucial707/cloudscan/cmd/cli/accounts"
	_ "github.com/crucial707/cloudscan/cmd/cli/auth"
	"github.com/crucial707/cloudscan/cmd/cli/root"
	_ "github.com/crucial707/cloudscan/cmd/cli/scan"
)

func main() {
	// Execute the root Cobra command
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
