package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabrielecerami/gitnetics/internal/config"
	"github.com/gabrielecerami/gitnetics/internal/logging"
	"github.com/gabrielecerami/gitnetics/internal/orchestrator"
)

// splitCSV splits a comma-separated flag value, dropping empty elements,
// returning nil for an empty input (so an unset flag leaves a filter
// untouched rather than narrowing to an empty set).
func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// bootstrap loads the projects configuration and builds an Orchestrator
// scoped to flags, the shared setup every subcommand performs before
// running its own operation.
func bootstrap(ctx context.Context, flags *globalFlags) (*orchestrator.Orchestrator, *logging.Logger, error) {
	logger := logging.New()

	projectsConf, err := config.Load(flags.ProjectsConf)
	if err != nil {
		return nil, logger, fmt.Errorf("loading projects configuration: %w", err)
	}

	filters := orchestrator.Filters{
		Projects:      splitCSV(flags.Projects),
		WatchMethod:   flags.WatchMethod,
		WatchBranches: splitCSV(flags.WatchBranches),
	}

	o, err := orchestrator.New(ctx, projectsConf, flags.BaseDir, filters, !flags.NoFetch, logger)
	if err != nil {
		return nil, logger, err
	}
	return o, logger, nil
}
