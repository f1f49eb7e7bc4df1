package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/tools/migrate"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/tools/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "authctl",
		Short: "Operational tooling for the enrollment auth service",
	}
	root.AddCommand(migrate.NewCommand(), seed.NewCommand())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
