// Package addressbook enforces the default-address rule on a user's
// address list: a non-empty list has exactly one default entry.
//
// Every function returns a fresh slice and never modifies its input.
package addressbook

import "github.com/dmitrijs2005/gophauth/internal/server/models"

// Normalize re-establishes the single-default rule:
//   - no default in a non-empty list: the first entry becomes default;
//   - several defaults: the last one flagged wins, the others are cleared;
//   - exactly one default, or an empty list: unchanged.
//
// Normalize is idempotent.
func Normalize(list []models.Address) []models.Address {
	out := make([]models.Address, len(list))
	copy(out, list)

	if len(out) == 0 {
		return out
	}

	keep := -1
	count := 0
	for i := range out {
		if out[i].IsDefault {
			keep = i
			count++
		}
	}

	switch {
	case count == 0:
		out[0].IsDefault = true
	case count > 1:
		for i := range out {
			out[i].IsDefault = i == keep
		}
	}

	return out
}

// Append adds a to the end of list and normalizes the result. An appended
// address flagged default therefore becomes the only default.
func Append(list []models.Address, a models.Address) []models.Address {
	out := make([]models.Address, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, a)
	return Normalize(out)
}

// Remove drops the address with the given id and normalizes the rest.
// The boolean is false when no address has that id; list is then returned
// unchanged (as a copy).
func Remove(list []models.Address, id string) ([]models.Address, bool) {
	out := make([]models.Address, 0, len(list))
	found := false
	for _, a := range list {
		if a.ID == id {
			found = true
			continue
		}
		out = append(out, a)
	}
	if !found {
		return out, false
	}
	return Normalize(out), true
}
