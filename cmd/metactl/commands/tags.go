package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"metapress/internal/cache"
	"metapress/internal/service"
	"metapress/internal/store"
)

func newTagsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Recount tags and delete those no published post uses",
		Long: `Recount every tag against published posts, then delete tags with no
published usage together with their remaining links. Running it again
immediately removes nothing. Cached tag listings are dropped when Valkey
is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.conn()
			if err != nil {
				return err
			}
			ctx, cancel := commandCtx(cmd)
			defer cancel()

			var c service.Cache
			if e.cfg.CacheEnabled() {
				client, err := cache.ConnectValkey(e.cfg.ValkeyHost, e.cfg.ValkeyPort, e.cfg.ValkeyPassword)
				if err != nil {
					slog.Warn("valkey unavailable, cached tag listings will expire on their own", "error", err)
				} else {
					defer client.Close()
					c = cache.NewTaxonomyCache(client, cache.DefaultKeyPrefix, e.cfg.CacheTTL)
				}
			}

			svc := service.NewTaxonomyService(service.FromStore(store.New(db, e.cfg)), c)
			n, err := svc.SweepTags(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d unused tags\n", n)
			return nil
		},
	})
	return cmd
}
