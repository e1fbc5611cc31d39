package cmd

import (
	"fmt"
	"os"
	"time"

	"labelops/config"
	"labelops/core/auth"

	"github.com/spf13/cobra"
)

var (
	tokenActorID string
	tokenRole    string
	tokenTTL     time.Duration
)

// tokenCmd mints a development bearer token for exercising the API locally.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development bearer token",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		token, err := auth.GenerateToken(cfg.JWTSecret, tokenActorID, tokenRole, tokenTTL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenActorID, "actor", "", "actor id to embed in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleArtist, "actor role (artist or manager)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.MarkFlagRequired("actor")
	rootCmd.AddCommand(tokenCmd)
}
