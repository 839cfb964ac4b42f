package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"circl/database"
	connectionRepo "circl/database/repository/connection"
	"circl/models"

	"github.com/spf13/cobra"
)

var (
	ownerID   int64
	memberID  int64
	email     string
	seedCount int
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage stored network connections (NETWORK_SOURCE=mongo)",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if ownerID <= 0 {
			return fmt.Errorf("--owner must be a positive user id")
		}
		return database.InitDB(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return database.Close(context.Background())
	},
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List an owner's connections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := connectionRepo.NewMongoConnectionRepo(database.Database())
		if err != nil {
			return err
		}
		conns, err := repo.ListByOwner(cmd.Context(), ownerID)
		if err != nil {
			return err
		}
		for _, c := range conns {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", c.MemberID, c.Email, c.CreatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var networkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Connect a member to an owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if memberID <= 0 {
			return fmt.Errorf("--member must be a positive user id")
		}
		repo, err := connectionRepo.NewMongoConnectionRepo(database.Database())
		if err != nil {
			return err
		}
		return repo.Add(cmd.Context(), models.Connection{OwnerID: ownerID, MemberID: memberID, Email: email})
	},
}

var networkSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert random connections for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := connectionRepo.NewMongoConnectionRepo(database.Database())
		if err != nil {
			return err
		}
		for _, c := range seedConnections(ownerID, seedCount, rand.New(rand.NewSource(time.Now().UnixNano()))) {
			if err := repo.Add(cmd.Context(), c); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d connections for %d\n", seedCount, ownerID)
		return nil
	},
}

// seedConnections builds n connections for owner with distinct member ids.
func seedConnections(owner int64, n int, rng *rand.Rand) []models.Connection {
	out := make([]models.Connection, 0, n)
	seen := map[int64]bool{owner: true}
	for len(out) < n {
		id := rng.Int63n(1_000_000) + 1
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, models.Connection{
			OwnerID:   owner,
			MemberID:  id,
			Email:     fmt.Sprintf("member%d@circl.test", id),
			CreatedAt: time.Now().Add(-time.Duration(rng.Intn(90*24)) * time.Hour),
		})
	}
	return out
}

func init() {
	networkCmd.PersistentFlags().Int64Var(&ownerID, "owner", 0, "owner user id")
	networkAddCmd.Flags().Int64Var(&memberID, "member", 0, "member user id")
	networkAddCmd.Flags().StringVar(&email, "email", "", "member email")
	networkSeedCmd.Flags().IntVar(&seedCount, "count", 20, "number of connections to create")

	networkCmd.AddCommand(networkListCmd, networkAddCmd, networkSeedCmd)
}
