package merge

import (
	"reflect"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/inkpress/inkpress/internal/post"
)

// mergeScalars applies the base-relative rule to every scalar field (the
// recognized scalars plus all passthrough keys) and writes the outcome into
// merged, which starts as a copy of the server document. Returns the sorted
// names of fields changed differently on both sides; the server value stands
// for those.
func mergeScalars(merged, base, server, client *post.Document) []string {
	baseFields := base.ScalarFields()
	serverFields := server.ScalarFields()
	clientFields := client.ScalarFields()

	names := make(map[string]struct{}, len(baseFields)+len(serverFields)+len(clientFields))
	for n := range baseFields {
		names[n] = struct{}{}
	}
	for n := range serverFields {
		names[n] = struct{}{}
	}
	for n := range clientFields {
		names[n] = struct{}{}
	}

	var conflicts []string
	for name := range names {
		bv, inBase := baseFields[name]
		sv, inServer := serverFields[name]
		cv, inClient := clientFields[name]

		serverChanged := inServer != inBase || (inServer && !valuesEqual(sv, bv))
		clientChanged := inClient != inBase || (inClient && !valuesEqual(cv, bv))

		switch {
		case !clientChanged:
			// Server state already in merged, changed or not.
		case !serverChanged:
			// Only the client touched it: adopt the client's state,
			// including removal.
			if inClient {
				merged.SetScalarField(name, cv)
			} else {
				merged.ClearScalarField(name)
			}
		case inServer == inClient && (!inServer || valuesEqual(sv, cv)):
			// Both sides made the identical change.
		default:
			// Divergent change on both sides: keep server, record the field.
			conflicts = append(conflicts, name)
		}
	}

	sort.Strings(conflicts)
	return conflicts
}

// mergeLabels merges the label sets: base minus everything either side
// removed, plus everything either side added. Commutative and idempotent.
// Returns a sorted slice, nil when the outcome is empty.
func mergeLabels(base, server, client []string) []string {
	baseSet := mapset.NewSet(base...)
	serverSet := mapset.NewSet(server...)
	clientSet := mapset.NewSet(client...)

	removals := baseSet.Difference(serverSet).Union(baseSet.Difference(clientSet))
	additions := serverSet.Difference(baseSet).Union(clientSet.Difference(baseSet))
	result := baseSet.Difference(removals).Union(additions)

	if result.Cardinality() == 0 {
		return nil
	}
	labels := result.ToSlice()
	sort.Strings(labels)
	return labels
}

// valuesEqual compares two field values, giving timestamps instant equality
// instead of struct equality.
func valuesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
