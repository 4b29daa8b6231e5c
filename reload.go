package main

import (
	"path/filepath"

	"github.com/milk9111/lofifm/prefabs"
	"github.com/milk9111/lofifm/scene"
)

// pollWatcher applies on-disk prefab edits. A reload that fails to load or
// build keeps the current model.
func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	changed, errs := g.watcher.Poll()
	for _, err := range errs {
		g.log.Warn().Err(err).Msg("watch")
	}

	reloadModel, reloadScript := false, false
	for _, name := range changed {
		switch {
		case prefabs.IsSpecFile(name) && filepath.Base(name) == filepath.Base(g.opts.Model):
			reloadModel = true
		case prefabs.IsScriptFile(name):
			reloadScript = true
		}
	}

	if reloadModel {
		g.reloadModel()
	}
	if reloadScript || reloadModel {
		g.reporter.SetFormatter(g.loadFormatter())
		g.report()
	}
}

func (g *Game) reloadModel() {
	spec, err := prefabs.LoadModelSpec(g.opts.Model)
	if err != nil {
		g.log.Error().Err(err).Msg("reload model; keeping the previous one")
		return
	}
	model, err := scene.Build(spec)
	if err != nil {
		g.log.Error().Err(err).Msg("rebuild model; keeping the previous one")
		return
	}
	model.CopyPose(g.model)

	g.spec = spec
	g.model = model
	g.anims.Reload(clipsFor(spec))
	g.router.Configure(routerConfig(spec))
	g.router.SetPicker(model)
	g.seq.Configure(sequencerConfig(spec, g.opts))

	if len(spec.Tracks) != len(g.seq.Tracks()) {
		g.log.Info().Msg("track list changes apply on restart")
	}
	g.log.Info().Str("model", spec.Name).Msg("model reloaded")
}
