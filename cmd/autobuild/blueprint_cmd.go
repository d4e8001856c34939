package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/l1jgo/autobuild/internal/blueprint/file"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/persist"
)

func newBlueprintCmd(load func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Manage stored blueprints",
	}
	cmd.AddCommand(newBlueprintListCmd(load), newBlueprintImportCmd(load), newBlueprintExportCmd(load))
	return cmd
}

func newBlueprintListCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blueprint ids in the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			src, db, err := openSource(ctx, cfg, log)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			ids, err := src.List(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// newBlueprintImportCmd copies file blueprints into PostgreSQL.
func newBlueprintImportCmd(load func() (*config.Config, error)) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "import <id>...",
		Short: "Copy blueprints from data.blueprint_dir into PostgreSQL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := file.NewStore(cfg.Data.BlueprintDir, log)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			db, _, err := openDB(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := persist.NewBlueprintRepo(db.SQL)

			out := cmd.OutOrStdout()
			for _, id := range args {
				doc, err := store.Read(ctx, id)
				if err != nil {
					return err
				}
				who := owner
				if who == "" {
					who = doc.Owner
				}
				if err := repo.Save(ctx, id, who, doc.Elements); err != nil {
					return fmt.Errorf("import %s: %w", id, err)
				}
				printOK(out, fmt.Sprintf("已匯入 %s (%d 個構件)", id, len(doc.Elements)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "override the owner recorded in the file")
	return cmd
}

// newBlueprintExportCmd writes PostgreSQL blueprints out as files.
func newBlueprintExportCmd(load func() (*config.Config, error)) *cobra.Command {
	var compress bool
	cmd := &cobra.Command{
		Use:   "export <id>...",
		Short: "Write blueprints from PostgreSQL into data.blueprint_dir",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := file.NewStore(cfg.Data.BlueprintDir, log)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			db, _, err := openDB(ctx, cfg.Database, log)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := persist.NewBlueprintRepo(db.SQL)

			out := cmd.OutOrStdout()
			for _, id := range args {
				elems, err := repo.Load(ctx, id)
				if err != nil {
					return err
				}
				if err := store.Save(ctx, id, file.Document{Name: id, Elements: elems}, compress); err != nil {
					return err
				}
				printOK(out, fmt.Sprintf("已匯出 %s (%d 個構件)", id, len(elems)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&compress, "compress", false, "write .json.zst instead of .json")
	return cmd
}
