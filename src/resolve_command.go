package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/contre95/lyricbar/src/features/player"
	"github.com/contre95/lyricbar/src/infra/tag"
	"github.com/contre95/lyricbar/src/music"
	"github.com/spf13/cobra"
)

var errNoLyrics = errors.New("no lyrics found")

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Print the lyrics for an audio file",
		Long:  "Runs the same lookup as the player: embedded tags, then the cache, then the configured command.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.cacheStore()
			if err != nil {
				return err
			}
			if err := store.EnsureReady(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache unavailable: %v\n", err)
			}

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			host := player.NewService(nil, tag.NewTagReader())
			go host.Run(runCtx)

			track, err := host.Add(runCtx, args[0])
			if err != nil {
				return err
			}
			if _, err := host.Play(track.ID); err != nil {
				return err
			}

			resolver := newResolver(cfgManager, host, store, nil)
			defer resolver.Close()
			outcome := resolver.Resolve(runCtx, track)

			flushCtx, flushCancel := context.WithTimeout(runCtx, 5*time.Second)
			defer flushCancel()
			if err := host.Flush(flushCtx); err != nil {
				return err
			}

			label := host.Label()
			if label.State != music.LyricsFound {
				return errNoLyrics
			}
			if showSource {
				fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", outcome)
			}
			fmt.Fprint(cmd.OutOrStdout(), label.Text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "Print where the lyrics came from to stderr")
	return cmd
}
