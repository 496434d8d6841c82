package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	mw "github.com/MakingChatbots/genesys-cloud-mcp-server/internal/api/middleware"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/config"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/internal/store"
	"github.com/MakingChatbots/genesys-cloud-mcp-server/pkg/models"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// keyStore is the subset of store.Store the apikey commands use.
type keyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP transport",
	}

	var name string
	var scopes []string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateKeyRequest(name, scopes); err != nil {
				return err
			}
			return withKeyStore(cmd.Context(), func(ks keyStore) error {
				return createKey(cmd.Context(), ks, name, scopes, time.Now(), cmd.OutOrStdout())
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "unique name for the key (required)")
	create.Flags().StringSliceVar(&scopes, "scope", []string{mw.ScopeMCP}, "scopes to grant: mcp, admin")

	list := &cobra.Command{
		Use:   "list",
		Short: "List active API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withKeyStore(cmd.Context(), func(ks keyStore) error {
				return listKeys(cmd.Context(), ks, time.Now(), cmd.OutOrStdout())
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("key id must be a UUID: %w", err)
			}
			return withKeyStore(cmd.Context(), func(ks keyStore) error {
				return revokeKey(cmd.Context(), ks, id, cmd.OutOrStdout())
			})
		},
	}

	cmd.AddCommand(create, list, revoke)
	return cmd
}

func validateKeyRequest(name string, scopes []string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("--name is required")
	}
	if len(scopes) == 0 {
		return errors.New("at least one --scope is required")
	}
	for _, s := range scopes {
		if !mw.ValidScope(s) {
			return fmt.Errorf("unknown scope %q: must be mcp or admin", s)
		}
	}
	return nil
}

// withKeyStore connects to the database, applies migrations and hands fn a store.
func withKeyStore(ctx context.Context, fn func(keyStore) error) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := store.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(dbCfg.URL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return fn(store.NewPostgresStore(pool))
}

func createKey(ctx context.Context, ks keyStore, name string, scopes []string, now time.Time, out io.Writer) error {
	raw, key, err := mw.IssueKey(strings.TrimSpace(name), scopes, now)
	if err != nil {
		return err
	}

	if err := ks.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return fmt.Errorf("an active key named %q already exists", key.Name)
		}
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Fprintf(out, "Created key %s (%s) with scopes %s\n", key.Name, key.ID, strings.Join(key.Scopes, ","))
	fmt.Fprintf(out, "Key: %s\n", raw)
	if key.HasScope(models.ScopeAdmin) {
		fmt.Fprintln(out, "This key can create and revoke other keys.")
	}
	fmt.Fprintln(out, "Store it now; it cannot be shown again.")
	return nil
}

func listKeys(ctx context.Context, ks keyStore, now time.Time, out io.Writer) error {
	keys, err := ks.ListAPIKeys(ctx)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tCREATED\tLAST USED")
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = humanize.RelTime(*k.LastUsedAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","),
			humanize.RelTime(k.CreatedAt, now, "ago", "from now"), lastUsed)
	}
	return tw.Flush()
}

func revokeKey(ctx context.Context, ks keyStore, id uuid.UUID, out io.Writer) error {
	err := ks.RevokeAPIKey(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no active key with id %s", id)
	}
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	fmt.Fprintf(out, "Revoked key %s\n", id)
	return nil
}
