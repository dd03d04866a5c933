package repoindex

import (
	"context"
	"log/slog"

	"github.com/lodosgroup/lpm/internal/lpmerr"
	"github.com/lodosgroup/lpm/internal/version"
)

// Resolved is one entry in a dependency closure: the package name, the
// exact version chosen for it, and the repository that claimed
// ownership of it ("first active repository wins").
type Resolved struct {
	Name         string
	Version      version.Version
	RepositoryID int64
}

// Resolve computes the breadth-first dependency closure of root across
// indexes, which must already be sorted by owning Repository.ID
// ascending so "first active repository wins" falls out of iteration
// order when choosing which repository owns a resolved version. Every
// active index carrying an entry for a stack member's name contributes
// its own mandatory-dependency list, not just the first; those
// contributions are unioned before moving to the next stack member.
// Diamond dependencies collapse to the first-seen version for a given
// name; a later occurrence with a different constraint is logged, not
// silently dropped.
func Resolve(ctx context.Context, indexes []*Index, root version.Query) ([]Resolved, error) {
	rootVer, rootIdx, err := findSatisfying(ctx, indexes, root.Name, constraintFor(root))
	if err != nil {
		return nil, err
	}

	stack := []Resolved{{Name: root.Name, Version: rootVer, RepositoryID: rootIdx.RepositoryID}}
	seen := map[string]version.Version{root.Name: rootVer}

	for i := 0; i < len(stack); i++ {
		p := stack[i]

		for _, ix := range indexes {
			v, ok, err := ix.GetPackage(ctx, p.Name, p.Version)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			deps, err := ix.GetMandatoryDependencies(ctx, p.Name, v)
			if err != nil {
				return nil, err
			}

			for _, depStr := range deps {
				q, ok := version.ParseQuery(depStr)
				if !ok {
					continue
				}

				if existing, seenBefore := seen[q.Name]; seenBefore {
					if !q.Latest && version.Compare(existing, q.Version) != version.OrderEqual {
						slog.Debug("diamond dependency collapsed to first-seen version",
							"name", q.Name, "kept", existing.String(), "ignored_constraint", q.Version.String())
					}
					continue
				}

				depVer, depIdx, err := findSatisfying(ctx, indexes, q.Name, constraintFor(q))
				if err != nil {
					return nil, err
				}

				seen[q.Name] = depVer
				stack = append(stack, Resolved{Name: q.Name, Version: depVer, RepositoryID: depIdx.RepositoryID})
			}

			// Every active repository carrying an entry for p.Name
			// contributes its dependency list, not just the first; only
			// the resolved version itself (via findSatisfying) picks a
			// single owning repository.
		}
	}

	return stack, nil
}

// constraintFor turns a Query into the version.Version GetPackage
// filters by. A "latest" query has no explicit constraint; it is
// represented as ">=0.0.0" so every candidate satisfies it and the
// DESC-ordered query's first row is the highest version.
func constraintFor(q version.Query) version.Version {
	if q.Latest {
		return version.Version{Condition: version.GreaterOrEqual}
	}
	return q.Version
}

func findSatisfying(ctx context.Context, indexes []*Index, name string, constraint version.Version) (version.Version, *Index, error) {
	for _, ix := range indexes {
		v, ok, err := ix.GetPackage(ctx, name, constraint)
		if err != nil {
			return version.Version{}, nil, err
		}
		if ok {
			return v, ix, nil
		}
	}
	return version.Version{}, nil, &lpmerr.RepositoryError{Kind: lpmerr.PackageNotFound, Name: name}
}
