package cmd

import (
	"fmt"
	"os"

	"labelops/config"
	"labelops/db"
	"labelops/model"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer db.CloseGormDB(gdb)

		if err := db.AutoMigrateModels(gdb, &model.Release{}, &model.Track{}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("migrations applied")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
