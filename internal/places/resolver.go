package places

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/i474232898/swissweather/internal/common"
	"github.com/i474232898/swissweather/internal/logger"
)

// Directory is the remote lookup service behind the resolver.
// Implementations report a non-OK upstream status as an empty result, not an error.
type Directory interface {
	SearchLocalities(ctx context.Context, name string) ([]Locality, error)
	SearchStreets(ctx context.Context, name string) ([]Street, error)
}

// Resolver turns free-text queries into place candidates.
// It never fails: every failure path ends at the curated list.
type Resolver struct {
	dir Directory
	log *logger.Logger
}

// NewResolver creates a Resolver. A nil Directory disables remote lookups.
func NewResolver(dir Directory, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Discard()
	}
	return &Resolver{dir: dir, log: log}
}

// Resolve returns the candidates for query, trying in order: curated list for an empty
// query, curated substring matches, remote localities, remote streets, curated list.
func (r *Resolver) Resolve(ctx context.Context, query string) []Place {
	normalized := common.NormalizeQuery(query)
	if normalized == "" {
		return Curated()
	}

	if matches := MatchCurated(normalized); len(matches) > 0 {
		r.log.Debug("curated match", slog.String("query", normalized), slog.Int("count", len(matches)))
		return matches
	}

	log := r.log.WithContext(ctx)
	if r.dir == nil {
		log.Fallback(normalized, "no_directory", nil)
		return Curated()
	}

	found, err := r.lookupRemote(ctx, strings.TrimSpace(query))
	if err != nil {
		log.Fallback(normalized, "lookup_failed", err)
		return Curated()
	}
	if len(found) == 0 {
		log.Fallback(normalized, "no_match", nil)
		return Curated()
	}
	return found
}

// lookupRemote runs the place-name search and, when that yields nothing, the street search.
// The second call is only made after the first one has answered.
func (r *Resolver) lookupRemote(ctx context.Context, query string) ([]Place, error) {
	localities, err := r.dir.SearchLocalities(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search localities: %w", err)
	}
	if len(localities) > 0 {
		out := make([]Place, 0, min(len(localities), MaxRemoteResults))
		for _, l := range localities {
			if len(out) >= MaxRemoteResults {
				break
			}
			out = append(out, l.toPlace())
		}
		return out, nil
	}

	streets, err := r.dir.SearchStreets(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search streets: %w", err)
	}
	out := DedupStreets(streets)
	if len(out) > MaxRemoteResults {
		out = out[:MaxRemoteResults]
	}
	return out, nil
}

// MatchCurated returns the curated cities whose lowercased name contains normalized,
// in curated order. normalized must already be trimmed and lowercased.
func MatchCurated(normalized string) []Place {
	var out []Place
	for _, c := range curated {
		if strings.Contains(strings.ToLower(c.Name), normalized) {
			out = append(out, c)
		}
	}
	return out
}

// DedupStreets collapses street records into one Place per (city, lat, lon).
// Records without a city are skipped; the first record seen for a key wins.
func DedupStreets(streets []Street) []Place {
	def := Default()
	seen := make(map[string]struct{}, len(streets))
	out := make([]Place, 0, len(streets))

	for _, s := range streets {
		if s.City == "" {
			continue
		}
		key := dedupKey(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Place{
			Name: s.City,
			Lat:  coordOrDefault(s.Latitude, def.Lat),
			Lon:  coordOrDefault(s.Longitude, def.Lon),
		})
	}
	return out
}

func dedupKey(s Street) string {
	return s.City + "-" + formatCoord(s.Latitude) + "-" + formatCoord(s.Longitude)
}

func formatCoord(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", *v)
}
