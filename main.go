package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"library-borrowing/library"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	logger := logrus.New()

	root := &cobra.Command{
		Use:          "library-borrowing",
		Short:        "Browse the library catalog and borrow up to two books",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogger(logger, logLevel, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := library.NewSeededManager(library.MemoryDSN, logger)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer manager.Close()

			return newApp(manager, cmd.InOrStdin(), cmd.OutOrStdout(), time.Second).run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newCatalogCmd(logger))
	return root
}

func newCatalogCmd(logger *logrus.Logger) *cobra.Command {
	var search, genre, sortBy string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the starting catalog, optionally filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := library.NewSeededManager(library.MemoryDSN, logger)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer manager.Close()

			books := manager.Library(library.Query{
				Search: search,
				Genre:  genre,
				Sort:   library.ParseSortKey(sortBy),
			})
			printBooks(cmd.OutOrStdout(), books, len(manager.Library(library.Query{})))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match title or author (case-insensitive)")
	cmd.Flags().StringVar(&genre, "genre", library.AllGenres, "exact genre, or 'all'")
	cmd.Flags().StringVar(&sortBy, "sort", string(library.SortByTitle), "title, author or copies")
	return cmd
}

func configureLogger(logger *logrus.Logger, level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger.SetLevel(lvl)
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}
