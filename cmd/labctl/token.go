package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/labtrack/internal/infrastructure/auth"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and revoke service tokens",
	}

	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a service token for an integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issued, err := auth.NewJWTService(a.cfg.JWT).Issue(subject, scopes, ttl)
			if err != nil {
				return err
			}
			a.log.Info("Token issued",
				zap.String("subject", issued.Subject),
				zap.String("jti", issued.ID),
				zap.Strings("scopes", issued.Scopes),
			)
			return printJSON(cmd.OutOrStdout(), issued)
		},
	}
	issue.Flags().StringVar(&subject, "subject", "", "integration name carried as the token subject")
	issue.Flags().StringSliceVar(&scopes, "scope", nil, fmt.Sprintf("granted scope, repeatable (%v)", auth.AllScopes))
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default from config)")
	_ = issue.MarkFlagRequired("subject")

	revoke := &cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a token until it would have expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := auth.NewJWTService(a.cfg.JWT).Validate(args[0])
			if err != nil {
				return fmt.Errorf("token not revocable: %w", err)
			}
			list, closeList, err := a.revocationList(cmd.Context())
			if err != nil {
				return err
			}
			defer closeList()

			if err := list.Revoke(cmd.Context(), claims.ID, claims.RemainingTTL()); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"revoked": claims.ID,
				"subject": claims.Subject,
				"until":   claims.ExpiresAt.Time,
			})
		},
	}

	cmd.AddCommand(issue, revoke)
	return cmd
}

// revocationList needs the shared Redis; an in-process list would be gone
// when the command exits.
func (a *app) revocationList(ctx context.Context) (auth.RevocationList, func(), error) {
	rc := a.cfg.Redis
	if !rc.Enabled {
		return nil, nil, errors.New("token revocation requires redis.enabled")
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis at %s: %w", rc.Addr(), err)
	}
	return auth.NewRedisRevocationList(client), func() { _ = client.Close() }, nil
}
