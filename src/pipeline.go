package main

import (
	"github.com/contre95/lyricbar/src/features/config"
	"github.com/contre95/lyricbar/src/features/lyrics"
	"github.com/contre95/lyricbar/src/infra/files"
	"github.com/contre95/lyricbar/src/infra/providers"
	"github.com/contre95/lyricbar/src/infra/shell"
	"github.com/contre95/lyricbar/src/music"
)

// newResolver builds the lyrics pipeline for host: embedded tags, then the
// cache, then the user's script.
func newResolver(cfg *config.Manager, host music.Host, store lyrics.Cache, recorder lyrics.Recorder) *lyrics.Resolver {
	script := providers.NewScriptProvider(
		cfg,
		files.NewCommandTemplateCompiler(host),
		shell.NewRunner(cfg.ScriptTimeout),
	)
	chain := lyrics.NewChain(recorder, script)
	return lyrics.NewResolver(host, store, chain, lyrics.Options{
		TagSource: cfg.LyricsTags,
		Recorder:  recorder,
	})
}
