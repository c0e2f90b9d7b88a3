package selection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askpair/api/internal/artifact"
	"github.com/askpair/api/internal/features"
	"github.com/askpair/api/internal/models"
)

// ModelSource resolves registered model versions from the registry.
// The persistence engine behind it is an external concern.
type ModelSource interface {
	// LatestModelVersion returns the most recently trained registered
	// version, or "" when no model is registered.
	LatestModelVersion(ctx context.Context) (string, error)
	// ModelByVersion returns the registry entry for a version, or nil when
	// the version is not registered.
	ModelByVersion(ctx context.Context, version string) (*models.ModelRegistryEntry, error)
}

// ArtifactLoader loads a model artifact from its registered path
type ArtifactLoader interface {
	Load(path string) (any, error)
}

// Decision is the learned ranker's answer. BestIndex == -1 means "no learned
// opinion": the caller must fall back to the rule choice and record the
// fallback, never fail the request.
type Decision struct {
	BestIndex    int
	ModelVersion string
	Reason       string
}

// Ranker chooses among candidates with a versioned pairwise-preference model
type Ranker struct {
	source ModelSource
	loader ArtifactLoader
	cache  *Cache
	pin    func(ctx context.Context) string
	logger *zap.Logger
}

// NewRanker wires the ranker with an injectable cache and loader so tests can
// substitute fakes and assert load counts. pin returns an explicit version
// override, or "" to resolve by recency; it may be nil.
func NewRanker(source ModelSource, loader ArtifactLoader, cache *Cache, pin func(ctx context.Context) string, logger *zap.Logger) *Ranker {
	if pin == nil {
		pin = func(context.Context) string { return "" }
	}
	return &Ranker{source: source, loader: loader, cache: cache, pin: pin, logger: logger}
}

// Choose resolves the active model version, reloads the cache if the version
// changed, and runs an all-pairs tournament over the candidates. All failures
// degrade to a Decision with a reason; Choose itself never errors the request.
func (r *Ranker) Choose(ctx context.Context, candidates []models.Candidate) Decision {
	version, err := r.resolveVersion(ctx)
	if err != nil {
		return Decision{BestIndex: -1, Reason: fmt.Sprintf("error: %v", err)}
	}
	if version == "" {
		return Decision{BestIndex: -1, Reason: "no_model"}
	}

	model, ok := r.cache.Get(version)
	if r.cache.Active() != version || !ok {
		model, err = r.reload(ctx, version)
		if err != nil {
			return Decision{BestIndex: -1, ModelVersion: version, Reason: err.Error()}
		}
	}

	n := len(candidates)
	if n == 0 {
		return Decision{BestIndex: -1, ModelVersion: version, Reason: "no_candidates"}
	}
	if n == 1 {
		return Decision{BestIndex: 0, ModelVersion: version}
	}

	best, err := tournament(model, candidates)
	if err != nil {
		return Decision{BestIndex: -1, ModelVersion: version, Reason: fmt.Sprintf("error: %v", err)}
	}
	return Decision{BestIndex: best, ModelVersion: version}
}

// resolveVersion prefers the explicit pin, else the newest registered version
func (r *Ranker) resolveVersion(ctx context.Context) (string, error) {
	if v := r.pin(ctx); v != "" {
		return v, nil
	}
	return r.source.LatestModelVersion(ctx)
}

// reload fetches the registry entry and artifact for a version and swaps the
// cache. The reason strings it returns are data for the Selection record.
func (r *Ranker) reload(ctx context.Context, version string) (any, error) {
	entry, err := r.source.ModelByVersion(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("error: %v", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("model_not_found_in_db")
	}

	model, err := r.loader.Load(entry.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("error: %v", err)
	}

	r.cache.Swap(version, model, entry.Metrics)
	r.logger.Info("model artifact loaded",
		zap.String("model_version", version),
		zap.String("artifact_path", entry.ArtifactPath),
	)
	ModelReloads.WithLabelValues(version).Inc()
	return model, nil
}

// tournament scores every ordered pair (A, B), A != B, through the model and
// ranks candidates by average win probability against all opponents. The
// pairwise design is what lets a binary preference model generalize to N>2
// candidates. Ties break by lowest index.
func tournament(model any, candidates []models.Candidate) (int, error) {
	vecs := make([]features.Record, len(candidates))
	for i, c := range candidates {
		vecs[i] = features.Record{
			LenWords:   c.LenWords,
			HasCode:    c.HasCode,
			StepScore:  c.StepScore,
			HasBullets: c.HasBullets,
			HasWarning: c.HasWarning,
		}
	}

	best := 0
	bestAvg := -1.0
	for i := range candidates {
		sum := 0.0
		cnt := 0
		for j := range candidates {
			if i == j {
				continue
			}
			p, err := artifact.WinProbability(model, features.Diff(vecs[i], vecs[j]))
			if err != nil {
				return -1, err
			}
			sum += p
			cnt++
		}
		avg := sum / float64(cnt)
		if avg > bestAvg {
			best = i
			bestAvg = avg
		}
	}
	return best, nil
}
