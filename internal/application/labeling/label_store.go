package labeling

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
)

// LookupOutcome classifies a lookup by natural key
type LookupOutcome string

const (
	LookupFound     LookupOutcome = "found"
	LookupNotFound  LookupOutcome = "not_found"
	LookupDuplicate LookupOutcome = "duplicate"
	LookupInvalid   LookupOutcome = "invalid"
)

// LookupResult is the answer for one (barcode, item code) pair.
// Label is set only for LookupFound; Matches lists record names for LookupDuplicate.
type LookupResult struct {
	Key     labeling.LabelKey
	Outcome LookupOutcome
	Label   *labeling.SequencingLabel
	Matches []string
}

// Err converts a non-found outcome into the matching domain error
func (r LookupResult) Err() error {
	switch r.Outcome {
	case LookupFound:
		return nil
	case LookupNotFound:
		return shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("No label found for barcode %s and item %s", r.Key.Barcode, r.Key.ItemCode))
	case LookupDuplicate:
		return shared.NewDomainError(shared.CodeDuplicateIntegrity,
			fmt.Sprintf("Found %d labels for barcode %s and item %s: %s",
				len(r.Matches), r.Key.Barcode, r.Key.ItemCode, strings.Join(r.Matches, ", ")))
	}
	return shared.NewDomainError(shared.CodeInvalidInput, "Barcode and item code are required")
}

// LabelStore is the authoritative lookup and mutation entry point for labels
type LabelStore struct {
	labelRepo labeling.LabelRepository
}

// NewLabelStore creates a new LabelStore
func NewLabelStore(labelRepo labeling.LabelRepository) *LabelStore {
	return &LabelStore{labelRepo: labelRepo}
}

// FindLabel looks up a label by exact barcode and item code.
// Zero or several matches are outcomes, not errors; the error is reserved for
// repository failures.
func (s *LabelStore) FindLabel(ctx context.Context, key labeling.LabelKey) (LookupResult, error) {
	if key.IsZero() {
		return LookupResult{Key: key, Outcome: LookupInvalid}, nil
	}
	records, err := s.labelRepo.FindByKey(ctx, key)
	if err != nil {
		return LookupResult{}, err
	}
	return classify(key, records), nil
}

// BatchFindLabels resolves every distinct pair with a single repository query.
// The result holds one entry per distinct input pair, including misses.
func (s *LabelStore) BatchFindLabels(ctx context.Context, keys []labeling.LabelKey) (map[labeling.LabelKey]LookupResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "label_store", "batch_find")
	defer span.End()

	distinct := labeling.DedupeKeys(keys)
	results := make(map[labeling.LabelKey]LookupResult, len(distinct))
	query := make([]labeling.LabelKey, 0, len(distinct))
	for _, key := range distinct {
		if key.IsZero() {
			results[key] = LookupResult{Key: key, Outcome: LookupInvalid}
			continue
		}
		query = append(query, key)
	}
	telemetry.SetAttributes(span, "labels.requested", len(keys), "labels.distinct", len(distinct))
	if len(query) == 0 {
		return results, nil
	}

	records, err := s.labelRepo.FindByKeys(ctx, query)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	grouped := make(map[labeling.LabelKey][]labeling.SequencingLabel, len(query))
	for _, record := range records {
		grouped[record.Key()] = append(grouped[record.Key()], record)
	}
	for _, key := range query {
		results[key] = classify(key, grouped[key])
	}
	return results, nil
}

// SetStatus writes a status directly. It does not consult the transition table;
// StatusChangeService is the guarded path.
func (s *LabelStore) SetStatus(ctx context.Context, name string, status labeling.LabelStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("Unknown label status %q", status))
	}
	return s.labelRepo.UpdateStatus(ctx, name, status)
}

func classify(key labeling.LabelKey, records []labeling.SequencingLabel) LookupResult {
	switch len(records) {
	case 0:
		return LookupResult{Key: key, Outcome: LookupNotFound}
	case 1:
		label := records[0]
		return LookupResult{Key: key, Outcome: LookupFound, Label: &label}
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return LookupResult{Key: key, Outcome: LookupDuplicate, Matches: names}
}
