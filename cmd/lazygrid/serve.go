package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/odata"
	"github.com/rebeliceyang/lazygrid/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		srcFlags   sourceFlags
		addr       string
		collection string
		dialect    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a source as a read-only OData collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srcFlags.apply(&cfg.Source)
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if collection != "" {
				cfg.Server.Collection = collection
			}
			if dialect != "" {
				cfg.Server.Dialect = dialect
			}

			d, err := odata.ParseDialect(cfg.Server.Dialect)
			if err != nil {
				return err
			}
			src, release, err := openSource(ctx, cfg)
			if err != nil {
				return err
			}
			defer release()

			srv := server.New(src, server.Config{
				Collection: cfg.Server.Collection,
				Dialect:    d,
				Logger:     logger.Get(),
			})
			logger.Get().Info("source ready", "source", src.Name())
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	srcFlags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&collection, "collection", "", "collection name (default server.collection)")
	cmd.Flags().StringVar(&dialect, "server-dialect", "", "OData dialect of responses (default server.dialect)")
	return cmd
}
