package main

import (
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/middleware"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a signed API token",
		Long: `Token signs a bearer token with AUTH_JWT_SECRET for the given user and role.
Intended for local testing and operator scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: runToken,
	}

	cmd.Flags().String("role", string(lifecycle.RoleStudent), "Role claim (student, admin, super_admin)")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	role, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if cfg.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is not set")
	}
	actor := lifecycle.Actor{ID: args[0], Role: lifecycle.Role(role)}
	if !actor.Role.Valid() || actor.Role == lifecycle.RoleSystem {
		return fmt.Errorf("invalid role %q", role)
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	token, err := middleware.IssueToken(cfg.Auth.JWTSecret, actor, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}
