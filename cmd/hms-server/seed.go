package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/seed"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data (staff, doctor, wards, drugs, sample patient)",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			fixture, err := seed.Default()
			if file != "" {
				fixture, err = seed.LoadFile(file)
			}
			if err != nil {
				return err
			}

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs, err := cliServices(cfg, pool)
			if err != nil {
				return err
			}
			logger := newLogger()
			rep, err := svcs.seeder(logger).Run(ctx, fixture)
			if rep != nil {
				printReport(rep)
			}
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("file", "", "YAML fixture to load instead of the built-in one")
	return cmd
}

func printReport(rep *seed.Report) {
	kinds := map[string]bool{}
	for k := range rep.Created {
		kinds[k] = true
	}
	for k := range rep.Skipped {
		kinds[k] = true
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	fmt.Printf("%-12s %-8s %s\n", "KIND", "CREATED", "SKIPPED")
	for _, k := range names {
		fmt.Printf("%-12s %-8d %d\n", k, rep.Created[k], rep.Skipped[k])
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := identity.CreateUserInput{}
			in.Email, _ = cmd.Flags().GetString("email")
			in.Name, _ = cmd.Flags().GetString("name")
			in.Role, _ = cmd.Flags().GetString("role")
			in.Password, _ = cmd.Flags().GetString("password")

			ctx := context.Background()
			cfg, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svcs, err := cliServices(cfg, pool)
			if err != nil {
				return err
			}
			ctx = auth.WithPrincipal(ctx, "cli", auth.RoleAdmin)
			u, err := svcs.identity.CreateUser(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("role", auth.RoleAdmin, "Role")
	createCmd.Flags().String("password", "", "Initial password (min 6 characters)")
	_ = createCmd.MarkFlagRequired("email")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("password")

	cmd.AddCommand(createCmd)
	return cmd
}
