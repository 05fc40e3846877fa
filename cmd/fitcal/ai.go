package main

import (
	"os"

	"fitcal/internal/ai"
	"fitcal/internal/config"
	appLog "fitcal/internal/log"
)

// newAIClient builds the completion client. The OAuth token can come from
// the environment so it does not have to live in the config file.
func newAIClient(cfg *config.Config) *ai.Client {
	aiCfg := cfg.AI
	if tok := os.Getenv("FITCAL_AI_OAUTH_TOKEN"); tok != "" {
		aiCfg.OAuthToken = tok
	}
	if !aiCfg.Enabled() {
		appLog.Info("AI features disabled, no oauth token or folder id configured")
	}
	return ai.NewClient(aiCfg)
}
