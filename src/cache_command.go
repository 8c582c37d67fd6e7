package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/contre95/lyricbar/src/music"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached lyrics",
	}
	cmd.AddCommand(newCacheListCommand(ctx))
	cmd.AddCommand(newCacheRemoveCommand(ctx))
	cmd.AddCommand(newCachePathCommand(ctx))
	return cmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List cached lyrics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintln(cmd.OutOrStdout(), "No cached lyrics")
					return nil
				}
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cached lyrics")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			var total int64
			for _, entry := range entries {
				total += entry.Size
				rows = append(rows, []string{
					entry.Key,
					humanize.Bytes(uint64(entry.Size)),
					humanize.Time(entry.ModTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Entry", "Size", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%s entries, %s\n", humanize.Comma(int64(len(entries))), humanize.Bytes(uint64(total)))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	var artist, title string

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove the cached lyrics of one track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := music.TrackIdentity{Artist: artist, Title: title}
			if !id.Complete() {
				return errors.New("both --artist and --title are required")
			}
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			if !store.Has(id) {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing cached for %s\n", id)
				return nil
			}
			if err := store.Remove(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "Track artist, exactly as tagged")
	cmd.Flags().StringVar(&title, "title", "", "Track title, exactly as tagged")
	return cmd
}

func newCachePathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Dir())
			return nil
		},
	}
}
