package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Initialize or upgrade the database schema",
	Long:  "Applies all schema migrations. Safe to run repeatedly; an up-to-date schema is left untouched.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		fmt.Println("Database schema is up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
