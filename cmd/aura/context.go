package main

import (
	"strings"
	"sync"

	"aura/internal/config"
	"aura/internal/workflow"
)

// appState lazily loads configuration once per invocation and hands it to
// whichever subcommand runs.
type appState struct {
	configFlag *string
	loadConfig func() (*config.Config, error)
}

func newAppState(configFlag *string) *appState {
	state := &appState{configFlag: configFlag}
	state.loadConfig = sync.OnceValues(func() (*config.Config, error) {
		var path string
		if state.configFlag != nil {
			path = strings.TrimSpace(*state.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		return cfg, nil
	})
	return state
}

func (s *appState) ensureConfig() (*config.Config, error) {
	return s.loadConfig()
}

func (s *appState) openStore() (*workflow.Store, error) {
	cfg, err := s.ensureConfig()
	if err != nil {
		return nil, err
	}
	return workflow.Open(cfg)
}
