package matches

import (
	"context"
	"errors"
	"fmt"

	"reviewant/internal/api"
	"reviewant/internal/config"
	"reviewant/internal/constants"
	"reviewant/internal/domain"

	"github.com/rs/zerolog"
)

// Source is the raw match-history endpoint; *api.HDevClient satisfies it.
type Source interface {
	GetMatches(ctx context.Context, region string, id domain.Identity) (*api.V3MatchesResponse, error)
}

// Provider fetches and normalizes match history for one identity.
type Provider struct {
	source Source
	region string
	logger zerolog.Logger
}

func NewProvider(source Source, cfg *config.Config, logger zerolog.Logger) *Provider {
	return &Provider{source: source, region: cfg.Region, logger: logger}
}

// FetchMatches returns the identity's normalized recent matches. An identity
// without history yields an empty slice; unreachable or malformed upstream
// responses yield domain.ErrUpstream.
func (p *Provider) FetchMatches(ctx context.Context, id domain.Identity) ([]domain.NormalizedMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	resp, err := p.source.GetMatches(ctx, p.region, id)
	if errors.Is(err, domain.ErrNotFound) {
		p.logger.Debug().Str("identity", id.String()).Msg("no match history for identity")
		return []domain.NormalizedMatch{}, nil
	}
	if err != nil {
		p.logger.Error().Err(err).Str("identity", id.String()).Msg("failed to fetch matches")
		if !errors.Is(err, domain.ErrUpstream) {
			err = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}

	raw := resp.Matches()
	normalized := Normalize(id, raw)
	if skipped := len(raw) - len(normalized); skipped > 0 {
		p.logger.Warn().Int("skipped", skipped).Str("identity", id.String()).Msg("skipped matches without id")
	}

	p.logger.Debug().Str("identity", id.String()).Int("match_count", len(normalized)).Msg("matches normalized")
	return normalized, nil
}
