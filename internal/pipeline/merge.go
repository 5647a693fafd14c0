package pipeline

import (
	"fmt"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/model"
)

// MergeMode decides how a batch joins the working set.
type MergeMode string

// Merge modes.
const (
	// MergeReplace discards the existing collection.
	MergeReplace MergeMode = "replace"
	// MergeAppend concatenates without deduplication: each upload is an additive log.
	MergeAppend MergeMode = "append"
)

// ParseMergeMode accepts "replace" or "append", case-insensitively.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case MergeReplace:
		return MergeReplace, nil
	case MergeAppend, "":
		return MergeAppend, nil
	default:
		return "", fmt.Errorf("unknown merge mode %q (want replace or append)", s)
	}
}

// Merge combines the existing working set with a validated batch.
func Merge(existing model.Collection, batch *ValidatedBatch, mode MergeMode) model.Collection {
	var incoming model.Collection
	if batch != nil {
		incoming = batch.Records
	}

	if mode == MergeReplace {
		out := make(model.Collection, len(incoming))
		copy(out, incoming)
		return out
	}

	out := make(model.Collection, 0, len(existing)+len(incoming))
	out = append(out, existing...)
	out = append(out, incoming...)
	return out
}
