package tools

import "mosaic/internal/config"

// BuiltinSources assembles the non-bridged tool sources from config.
// The web tool needs a Brave API key and is left out without one.
func BuiltinSources(cfg *config.Config) []Source {
	builtin := []Tool{
		&Calculator{},
		&Datetime{},
		&File{},
	}

	community := []Tool{NewWikipedia()}
	if cfg.Services.Brave.APIKey != "" {
		community = append(community, NewWeb(cfg.Services.Brave.APIKey))
	}

	custom := []Tool{&Text{}}

	return []Source{
		FixedSource{Cat: CategoryBuiltin, Tools: builtin},
		FixedSource{Cat: CategoryCommunity, Tools: community},
		FixedSource{Cat: CategoryCustom, Tools: custom},
	}
}
