package chat

// StartSource records which rule picked a page's start index.
type StartSource int

const (
	StartExplicit StartSource = iota
	StartTargetPost
	StartReadPivot
	StartBeginning
)

// ClampLimit resolves the requested page size into [1, max], using def when unset.
func ClampLimit(requested *int, def, max int) int {
	limit := def
	if requested != nil {
		limit = *requested
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}

// ResolveStart picks the unfiltered start index by priority: an explicit
// start, the index of a target post, the stored read count (capped at total)
// rounded down to a page boundary, then zero. An unusable input falls through
// to the next rule.
func ResolveStart(explicit *int, targetIndex int, targetFound bool, pivot *ReadPivot, limit, total int) (int, StartSource) {
	if explicit != nil && *explicit >= 0 {
		return *explicit, StartExplicit
	}
	if targetFound && targetIndex >= 0 {
		return targetIndex, StartTargetPost
	}
	if pivot != nil && pivot.ReadCount > 0 && limit > 0 {
		read := min(pivot.ReadCount, total)
		if read > 0 {
			return read / limit * limit, StartReadPivot
		}
	}
	return 0, StartBeginning
}

// NextReadCount computes the read position after serving [start, start+limit).
// The position never moves backwards unless it exceeds total, which happens
// after deletions; then it clamps down. save is false when nothing changes.
func NextReadCount(existing *ReadPivot, start, limit, total int) (readCount int, save bool) {
	next := start + limit
	if next > total {
		next = total
	}
	if next < 0 {
		next = 0
	}
	if existing == nil {
		return next, true
	}
	if next > existing.ReadCount || existing.ReadCount > total {
		return next, next != existing.ReadCount
	}
	return existing.ReadCount, false
}
