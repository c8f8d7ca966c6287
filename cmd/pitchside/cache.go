package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

const adminTimeout = 10 * time.Second

func newCacheCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or purge the answer cache of a running server",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "base URL of the running server")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show answer cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient(cmd, addr)
			if err != nil {
				return err
			}
			stats, err := client.cacheStats()
			if err != nil {
				return err
			}
			fmt.Printf("Lookups:  %d\nHits:     %d (exact %d)\nMisses:   %d\nExpired:  %d\nErrors:   %d\nInserts:  %d (failed %d)\n",
				stats.Lookups, stats.Hits, stats.ExactHits, stats.Misses, stats.Expired, stats.Errors, stats.Inserts, stats.InsertFailures)
			return nil
		},
	}

	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAdminClient(cmd, addr)
			if err != nil {
				return err
			}
			if err := client.purge(); err != nil {
				return err
			}
			fmt.Println("Answer cache purged.")
			return nil
		},
	}

	cmd.AddCommand(statsCmd, purgeCmd)
	return cmd
}

// adminClient calls the /admin routes of a running server.
type adminClient struct {
	baseURL string
	token   string
}

// newAdminClient signs a short-lived token when the config has an admin
// secret; otherwise requests go out unauthenticated.
func newAdminClient(cmd *cobra.Command, addr string) (*adminClient, error) {
	c := &adminClient{baseURL: strings.TrimRight(addr, "/")}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Admin.JWTSecret != "" {
		if c.token, err = middleware.IssueToken(cfg.Admin, "pitchside-cli", time.Minute); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *adminClient) do(agent *fiber.Agent, want int) ([]byte, error) {
	agent.Timeout(adminTimeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("admin request failed: %w", errors.Join(errs...))
	}
	if code != want {
		return nil, fmt.Errorf("admin request failed: status %d: %s", code, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (c *adminClient) cacheStats() (*answer_cache.Stats, error) {
	body, err := c.do(fiber.Get(c.baseURL+"/admin/cache/stats"), fiber.StatusOK)
	if err != nil {
		return nil, err
	}
	var stats answer_cache.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode cache stats: %w", err)
	}
	return &stats, nil
}

func (c *adminClient) purge() error {
	_, err := c.do(fiber.Delete(c.baseURL+"/admin/cache"), fiber.StatusNoContent)
	return err
}
