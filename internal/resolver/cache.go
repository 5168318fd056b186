package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// cacheEnvelope is the on-disk shape of a persisted resolution cache. The
// counters are informational; only anonymous_to_name is read back.
type cacheEnvelope struct {
	AnonymousToName     map[string]*Result `json:"anonymous_to_name"`
	GeneratedAt         string             `json:"generated_at"`
	TotalMappings       int                `json:"total_mappings"`
	HighConfidenceCount int                `json:"high_confidence_count"`
	MappingSummary      map[string]int     `json:"mapping_summary"`
}

// SaveCache writes the resolution cache to a JSON file so later runs can
// skip recomputation. There is no invalidation policy; delete the file to
// force a rebuild.
func (r *Resolver) SaveCache(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	highConfidence := 0
	summary := map[string]int{
		"direct_id_match":  0,
		"context_matching": 0,
		"fallback_methods": 0,
	}
	for _, result := range r.cache {
		if result.Confidence >= 0.8 {
			highConfidence++
		}
		switch result.Method {
		case MethodDirectIDMatch:
			summary["direct_id_match"]++
		case MethodContextMatching, MethodContextMatchingUnverified:
			summary["context_matching"]++
		default:
			summary["fallback_methods"]++
		}
	}

	envelope := cacheEnvelope{
		AnonymousToName:     r.cache,
		GeneratedAt:         time.Now().Format(time.RFC3339),
		TotalMappings:       len(r.cache),
		HighConfidenceCount: highConfidence,
		MappingSummary:      summary,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling resolution cache: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing resolution cache: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"path":     path,
		"mappings": len(r.cache),
	}).Info("Saved resolution cache")
	return nil
}

// LoadCache replaces the in-memory cache from a previously saved file.
// A missing or corrupt file leaves the cache empty and returns false; a
// crash mid-write can corrupt the file, so parse failures are expected and
// recoverable.
func (r *Resolver) LoadCache(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.WithError(err).WithField("path", path).Debug("No resolution cache to load")
		return false
	}

	var envelope cacheEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		r.logger.WithError(err).WithField("path", path).Warn("Resolution cache unreadable, starting empty")
		return false
	}

	if envelope.AnonymousToName == nil {
		return false
	}

	r.mu.Lock()
	r.cache = envelope.AnonymousToName
	mappings := len(r.cache)
	r.mu.Unlock()

	r.logger.WithFields(map[string]interface{}{
		"path":     path,
		"mappings": mappings,
	}).Info("Loaded resolution cache")
	return true
}
