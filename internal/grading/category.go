package grading

import (
	"sort"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// UnassignedCategoryName labels the grouping of assignments without a category.
const UnassignedCategoryName = "Unassigned"

// Engine computes category and course grades from an in-memory snapshot. It holds no
// state besides its policy and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine builds an engine. Zero-valued policy fields fall back to the defaults.
func NewEngine(policy Policy) Engine {
	def := DefaultPolicy()
	if policy.EmptyCategory == "" {
		policy.EmptyCategory = def.EmptyCategory
	}
	if policy.Ungraded == "" {
		policy.Ungraded = def.Ungraded
	}
	return Engine{policy: policy}
}

// Policy returns the active aggregation policy.
func (e Engine) Policy() Policy {
	return e.policy
}

// UnassignedCategory returns the pseudo-category grouping uncategorised assignments.
func UnassignedCategory(gradebookID string) models.Category {
	return models.Category{GradebookID: gradebookID, Name: UnassignedCategoryName}
}

type scoredEntry struct {
	assignment models.Assignment
	earned     float64
}

func (s scoredEntry) fraction() float64 {
	return s.earned / s.assignment.PointsPossible
}

// ComputeCategoryResult aggregates one student's records for a category. assignments
// must all belong to the category and records must reference only those assignments.
func (e Engine) ComputeCategoryResult(gb models.Gradebook, category models.Category, assignments []models.Assignment, records []models.GradeRecord) (CategoryResult, error) {
	return e.categoryResult(gb, category, assignments, records, false)
}

// categoryResult validates the drop count against every counted assignment. With
// releasedOnly the aggregate then covers released work only, where the drop count is
// clamped like any other short list of scores.
func (e Engine) categoryResult(gb models.Gradebook, category models.Category, assignments []models.Assignment, records []models.GradeRecord, releasedOnly bool) (CategoryResult, error) {
	result := CategoryResult{
		CategoryID:   category.ID,
		Name:         category.Name,
		Weight:       category.Weight,
		Unassigned:   category.ID == "",
		Contributing: []string{},
		Dropped:      []string{},
		Display:      ModePercent,
	}
	if err := validateCategory(gb, category); err != nil {
		return result, err
	}
	counted, err := countedAssignments(gb, category, assignments)
	if err != nil {
		return result, err
	}
	byAssignment, err := indexRecords(assignments, records)
	if err != nil {
		return result, err
	}
	if category.DropLowest > 0 && len(counted) > 0 && category.DropLowest >= len(counted) {
		return result, violation("category %q drops %d of %d counted assignments", category.Name, category.DropLowest, len(counted))
	}
	if releasedOnly {
		counted = released(counted)
	}
	result.Counted = len(counted)
	if result.Unassigned && gb.CategoryType == models.CategoryTypeWeighted {
		// Display grouping only, never averaged.
		result.Excluded = true
		return result, nil
	}

	entries := e.scoredEntries(counted, byAssignment)
	kept, dropped := dropLowest(entries, category.DropLowest)
	for _, entry := range dropped {
		result.Dropped = append(result.Dropped, entry.assignment.ID)
	}
	for _, entry := range kept {
		result.PointsEarned += entry.earned
		result.PointsPossible += entry.assignment.PointsPossible
		result.Contributing = append(result.Contributing, entry.assignment.ID)
	}
	result.Percentage = percentOf(result.PointsEarned, result.PointsPossible)
	return result, nil
}

func validateCategory(gb models.Gradebook, category models.Category) error {
	if category.ID == "" {
		if category.GradebookID != "" && category.GradebookID != gb.ID {
			return violation("unassigned grouping belongs to gradebook %s, not %s", category.GradebookID, gb.ID)
		}
		return nil
	}
	if category.GradebookID != gb.ID {
		return violation("category %s belongs to gradebook %s, not %s", category.ID, category.GradebookID, gb.ID)
	}
	if category.Removed {
		return violation("category %s is removed", category.ID)
	}
	if category.Weight < 0 || category.Weight > 1 {
		return violation("category %s weight %v outside [0,1]", category.ID, category.Weight)
	}
	if category.DropLowest < 0 {
		return violation("category %s has negative drop count", category.ID)
	}
	return nil
}

func countedAssignments(gb models.Gradebook, category models.Category, assignments []models.Assignment) ([]models.Assignment, error) {
	counted := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.GradebookID != gb.ID {
			return nil, violation("assignment %s belongs to gradebook %s, not %s", a.ID, a.GradebookID, gb.ID)
		}
		if !a.InCategory(category.ID) {
			return nil, violation("assignment %s is not in category %q", a.ID, category.Name)
		}
		if !a.Aggregatable() {
			continue
		}
		if a.PointsPossible <= 0 {
			return nil, violation("assignment %s has non-positive points possible", a.ID)
		}
		counted = append(counted, a)
	}
	sortAssignments(counted)
	return counted, nil
}

func indexRecords(assignments []models.Assignment, records []models.GradeRecord) (map[string]models.GradeRecord, error) {
	known := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		known[a.ID] = struct{}{}
	}
	byAssignment := make(map[string]models.GradeRecord, len(records))
	for _, r := range records {
		if _, ok := known[r.AssignmentID]; !ok {
			return nil, violation("grade record for unknown assignment %s", r.AssignmentID)
		}
		if _, dup := byAssignment[r.AssignmentID]; dup {
			return nil, violation("duplicate grade record for assignment %s", r.AssignmentID)
		}
		byAssignment[r.AssignmentID] = r
	}
	return byAssignment, nil
}

func (e Engine) scoredEntries(counted []models.Assignment, byAssignment map[string]models.GradeRecord) []scoredEntry {
	entries := make([]scoredEntry, 0, len(counted))
	for _, a := range counted {
		record, ok := byAssignment[a.ID]
		switch {
		case ok && record.PointsEarned != nil:
			entries = append(entries, scoredEntry{assignment: a, earned: *record.PointsEarned})
		case e.policy.Ungraded == UngradedAsZero:
			entries = append(entries, scoredEntry{assignment: a})
		}
	}
	return entries
}

// dropLowest removes up to n entries with the lowest score fraction, always keeping at
// least one. Ties drop the smaller points possible first, then the earlier due date
// (undated last), then the lower assignment id.
func dropLowest(entries []scoredEntry, n int) (kept, dropped []scoredEntry) {
	if n > len(entries)-1 {
		n = len(entries) - 1
	}
	if n <= 0 {
		return entries, nil
	}
	ranked := make([]scoredEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return dropsBefore(ranked[i], ranked[j])
	})
	droppedIDs := make(map[string]struct{}, n)
	for _, entry := range ranked[:n] {
		droppedIDs[entry.assignment.ID] = struct{}{}
		dropped = append(dropped, entry)
	}
	for _, entry := range entries {
		if _, ok := droppedIDs[entry.assignment.ID]; !ok {
			kept = append(kept, entry)
		}
	}
	return kept, dropped
}

func dropsBefore(a, b scoredEntry) bool {
	fa, fb := a.fraction(), b.fraction()
	if fa != fb {
		return fa < fb
	}
	pa, pb := a.assignment.PointsPossible, b.assignment.PointsPossible
	if pa != pb {
		return pa < pb
	}
	da, db := a.assignment.DueDate, b.assignment.DueDate
	switch {
	case da != nil && db == nil:
		return true
	case da == nil && db != nil:
		return false
	case da != nil && db != nil && !da.Equal(*db):
		return da.Before(*db)
	}
	return a.assignment.ID < b.assignment.ID
}

func sortAssignments(assignments []models.Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		if assignments[i].SortOrder != assignments[j].SortOrder {
			return assignments[i].SortOrder < assignments[j].SortOrder
		}
		return assignments[i].ID < assignments[j].ID
	})
}

func released(assignments []models.Assignment) []models.Assignment {
	out := make([]models.Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.Released {
			out = append(out, a)
		}
	}
	return out
}

func percentOf(earned, possible float64) *float64 {
	if possible <= 0 {
		return nil
	}
	pct := 100 * earned / possible
	return &pct
}
