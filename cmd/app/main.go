package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omejiasq/protegemesicov-sub000/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "protegemesicov",
		Usage: "Fleet-compliance back office with vigilance-authority sync",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./protegemesicov.sqlite",
				Usage: "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "vigilance-base-url",
				Sources: cli.EnvVars("SICOV_BASE_URL"),
				Usage:   "Vigilance authority business API base URL",
			},
			&cli.StringFlag{
				Name:    "vigilance-auth-url",
				Sources: cli.EnvVars("SICOV_AUTH_URL"),
				Usage:   "Vigilance authority authentication base URL",
			},
			&cli.StringFlag{
				Name:    "vigilance-login-path",
				Value:   "/api/v1/inicio-sesion",
				Sources: cli.EnvVars("SICOV_LOGIN_PATH"),
				Usage:   "Login endpoint path on the authentication base URL",
			},
			&cli.StringFlag{
				Name:    "vigilance-user",
				Sources: cli.EnvVars("SICOV_USER"),
				Usage:   "Service account user for the login exchange",
			},
			&cli.StringFlag{
				Name:    "vigilance-password",
				Sources: cli.EnvVars("SICOV_PASSWORD"),
				Usage:   "Service account password for the login exchange",
			},
			&cli.StringFlag{
				Name:    "vigilance-entity-id",
				Sources: cli.EnvVars("SICOV_ENTITY_ID"),
				Usage:   "Fallback vigilance-entity id when the tenant has none",
			},
			&cli.StringFlag{
				Name:    "vigilance-entity-token",
				Sources: cli.EnvVars("SICOV_ENTITY_TOKEN"),
				Usage:   "Fallback vigilance-entity access token",
			},
			&cli.DurationFlag{
				Name:    "vigilance-timeout",
				Value:   10 * time.Second,
				Sources: cli.EnvVars("SICOV_TIMEOUT"),
				Usage:   "Deadline for each outbound call, including the auth retry",
			},
			&cli.IntFlag{
				Name:  "sync-queue-size",
				Value: 256,
				Usage: "Bounded queue size for detached remote pushes",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("SICOV_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant",
				Value:   "default",
				Sources: cli.EnvVars("SICOV_BOOTSTRAP_TENANT"),
				Usage:   "Tenant for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("SICOV_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for bootstrap API key",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:                 c.String("addr"),
				DBPath:               c.String("db-path"),
				VigilanceBaseURL:     c.String("vigilance-base-url"),
				VigilanceAuthURL:     c.String("vigilance-auth-url"),
				VigilanceLoginPath:   c.String("vigilance-login-path"),
				VigilanceUser:        c.String("vigilance-user"),
				VigilancePassword:    c.String("vigilance-password"),
				VigilanceEntityID:    c.String("vigilance-entity-id"),
				VigilanceEntityToken: c.String("vigilance-entity-token"),
				VigilanceTimeout:     c.Duration("vigilance-timeout"),
				SyncQueueSize:        int(c.Int("sync-queue-size")),
				BootstrapAPIKey:      c.String("bootstrap-api-key"),
				BootstrapTenant:      c.String("bootstrap-tenant"),
				BootstrapKeyName:     c.String("bootstrap-key-name"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
