package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolkov/hldrdetector/hldr"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := hldr.GetInfo()
			fmt.Printf("hldrdetect %s (%s)\n", info.Version, info.Algorithm)
		},
	}
}
