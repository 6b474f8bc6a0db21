package cli

import (
	"net/url"
	"slices"

	"github.com/shivanshkc/koda/internal/config"
	"github.com/shivanshkc/koda/pkg/render"
)

// validateRootFlags validates the settings shared by every command that calls the API.
func validateRootFlags(cfg *config.Config) string {
	// Base URL is required.
	if cfg.BaseURL == "" {
		return "Base URL is required. Set --base-url, KODA_BASE_URL or OPENAI_BASE_URL."
	}

	// Must be an absolute URL.
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "Invalid Base URL: " + err.Error()
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "Invalid Base URL: scheme and host are required."
	}

	// The model table must offer at least one model.
	if len(cfg.Models) == 0 {
		return "The model table is empty."
	}

	if cfg.Transport != config.TransportHTTP && cfg.Transport != config.TransportSDK {
		return "Transport must be one of: http, sdk."
	}

	return ""
}

// validateAskFlags validates the flags of the ask command.
func validateAskFlags(cfg *config.Config) string {
	// Root command flags are used by the ask command too.
	if message := validateRootFlags(cfg); message != "" {
		return message
	}

	if !slices.Contains([]string{render.ConverterAuto, render.ConverterPandoc, render.ConverterBuiltin}, cfg.Converter) {
		return "Converter must be one of: auto, pandoc, builtin."
	}

	// The viewer is only needed when a document is shown.
	if !askNoBrowser && cfg.Viewer == "" {
		return "A viewer command is required unless --no-browser is set."
	}

	// Only a withheld segment can be replayed.
	if askReplayThinking && !askHideThinking {
		return "--replay-thinking requires --hide-thinking."
	}

	if cfg.Markers.Open == "" || cfg.Markers.Close == "" {
		return "Thinking markers cannot be empty."
	}

	return ""
}

// validateTranslateFlags validates the flags of the translate command.
func validateTranslateFlags(cfg *config.Config) string {
	// Root command flags are used by the translate command too.
	if message := validateRootFlags(cfg); message != "" {
		return message
	}

	// Language is required.
	if cfg.Language == "" {
		return "A target language is required."
	}

	return ""
}
