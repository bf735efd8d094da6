package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"companion-api/internal/client"
	"companion-api/internal/config"
	"companion-api/internal/domain"
	"companion-api/internal/refresh"
	"companion-api/internal/service"
	"companion-api/internal/view"
)

type app struct {
	cfg    *config.ClientConfig
	api    *client.Client
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "companions",
		Short:         "Terminal client for the companions API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClientConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if url, _ := cmd.Flags().GetString("api"); url != "" {
				cfg.APIURL = url
			}
			if token, _ := cmd.Flags().GetString("token"); token != "" {
				cfg.Token = token
			}
			a.cfg = cfg
			a.api = client.New(cfg.APIURL, cfg.Token)
			a.logger = zap.NewExample()
			if debug, _ := cmd.Flags().GetBool("debug"); !debug {
				a.logger = zap.NewNop()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("api", "", "API base URL (overrides COMPANIONS_API_URL)")
	rootCmd.PersistentFlags().String("token", "", "access token (overrides COMPANIONS_TOKEN)")
	rootCmd.PersistentFlags().Bool("debug", false, "log list refreshes")

	rootCmd.AddCommand(
		a.newListCmd(),
		a.newShowCmd(),
		a.newCreateCmd(),
		a.newDeleteCmd(),
		a.newBookmarkCmd(),
		a.newUnbookmarkCmd(),
		a.newStartCmd(),
		a.newHomeCmd(),
		a.newJourneyCmd(),
		a.newWatchCmd(),
		a.newTokenCmd(),
	)
	return rootCmd
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func (a *app) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			var filter domain.CompanionFilter
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			filter.Page, _ = cmd.Flags().GetInt("page")
			filter.Subject, _ = cmd.Flags().GetString("subject")
			filter.Topic, _ = cmd.Flags().GetString("topic")

			list, err := a.api.ListCompanions(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.List("Companions", list, false))
			return nil
		},
	}
	cmd.Flags().Int("limit", 0, "page size")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().String("subject", "", "filter by subject")
	cmd.Flags().String("topic", "", "filter by topic or name")
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [ID]",
		Short: "Show a companion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			c, err := a.api.GetCompanion(ctx, args[0])
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("companion %s not found", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Detail(c))
			return nil
		},
	}
}

func (a *app) newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a companion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			allowed, err := a.api.CanCreate(ctx)
			if err != nil {
				return err
			}
			if !allowed {
				return errors.New("companion limit reached, upgrade your plan to create more")
			}

			var input client.CreateInput
			input.Name, _ = cmd.Flags().GetString("name")
			input.Subject, _ = cmd.Flags().GetString("subject")
			input.Topic, _ = cmd.Flags().GetString("topic")
			input.Voice, _ = cmd.Flags().GetString("voice")
			input.Style, _ = cmd.Flags().GetString("style")
			input.Duration, _ = cmd.Flags().GetInt("duration")

			c, err := a.api.CreateCompanion(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.Detail(c))
			return nil
		},
	}
	cmd.Flags().String("name", "", "companion name")
	cmd.Flags().String("subject", "", "subject, e.g. maths")
	cmd.Flags().String("topic", "", "what the companion helps with")
	cmd.Flags().String("voice", "", "voice type")
	cmd.Flags().String("style", "", "speaking style")
	cmd.Flags().Int("duration", 15, "session length in minutes")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [ID]",
		Short: "Delete one of your companions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			n, err := a.api.DeleteCompanion(ctx, args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing deleted (not found or not yours)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func (a *app) newBookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark [ID]",
		Short: "Bookmark a companion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			path, _ := cmd.Flags().GetString("path")
			if err := a.api.Bookmark(ctx, args[0], path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "bookmarked", args[0])
			return nil
		},
	}
	cmd.Flags().String("path", "/companions", "path to revalidate")
	return cmd
}

func (a *app) newUnbookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unbookmark [ID]",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			path, _ := cmd.Flags().GetString("path")
			if err := a.api.Unbookmark(ctx, args[0], path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed bookmark", args[0])
			return nil
		},
	}
	cmd.Flags().String("path", "/companions", "path to revalidate")
	return cmd
}

func (a *app) newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [ID]",
		Short: "Record a session with a companion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			entry, err := a.api.StartSession(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s recorded at %s\n", entry.ID, entry.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func (a *app) newHomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()
			home := refresh.NewRecentSessions(a.logger, a.api)
			home.Mount(ctx, refresh.HomePath)
			fmt.Fprintln(cmd.OutOrStdout(), view.List("Recently completed sessions", home.Items(), false))
			return nil
		},
	}
}

func (a *app) newJourneyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journey",
		Short: "Show your sessions, companions and bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := a.api.UserID()
			if userID == "" {
				return errors.New("journey needs a token (set COMPANIONS_TOKEN)")
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			sessions := refresh.NewUserSessions(a.logger, a.api, userID)
			companions := refresh.NewUserCompanions(a.logger, a.api, userID)
			sessions.Mount(ctx, refresh.JourneyPath)
			companions.Mount(ctx, refresh.JourneyPath)

			bookmarks, err := a.api.UserBookmarks(ctx, userID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, view.List("Recent sessions", sessions.Items(), false))
			fmt.Fprintln(out, view.List("My companions", companions.Items(), false))
			fmt.Fprintln(out, view.List("Bookmarked companions", bookmarks, false))
			return nil
		},
	}
}

func (a *app) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive mode that keeps lists fresh while you navigate",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			w := newWatcher(a.logger, a.api, a.api.UserID(), cmd.OutOrStdout())
			return w.run(cmd.Context(), os.Stdin, interval)
		},
	}
	cmd.Flags().Duration("interval", 5*time.Second, "how often to poll for stale views")
	return cmd
}

// newTokenCmd emite un par de tokens firmado con JWT_SECRET, util en desarrollo.
func (a *app) newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			user, _ := cmd.Flags().GetString("user")
			plan, _ := cmd.Flags().GetString("plan")
			features, _ := cmd.Flags().GetStringSlice("feature")

			jwtSvc := service.NewJWTService(a.cfg.JWTSecret,
				time.Duration(a.cfg.JWTAccessTTLMinutes)*time.Minute,
				time.Duration(a.cfg.JWTRefreshTTLMinutes)*time.Minute,
			)
			pair, err := jwtSvc.GeneratePair(cmd.Context(), domain.Viewer{
				UserID:       user,
				Entitlements: domain.Entitlements{Plan: plan, Features: features},
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pair.AccessToken)
			return nil
		},
	}
	cmd.Flags().String("user", "", "user id")
	cmd.Flags().String("plan", "", "billing plan, e.g. pro")
	cmd.Flags().StringSlice("feature", nil, "entitlement feature, repeatable")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
