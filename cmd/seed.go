/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/portalberita/apiserver/config"
	"github.com/portalberita/apiserver/internal/db"
	"github.com/spf13/cobra"
)

// seedCmd provisions the default admin account and category taxonomy.
// User creation is otherwise out of band, so a fresh deployment runs
// `portalberita migrate up` followed by `portalberita seed`.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin user and default categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		return db.Seed(cmd.Context(), conn)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
