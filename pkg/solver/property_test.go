package solver

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
)

var stabilities = []model.Stability{
	model.StabilityStable, model.StabilityStable, model.StabilityTesting, model.StabilityBuggy,
}

// randomUniverse builds a small random set of feeds. Dependencies mostly
// point forward so universes are usually solvable, with occasional cycles
// and recommended edges.
func randomUniverse(seed int64) *feed.MemoryProvider {
	r := rand.New(rand.NewSource(seed))
	n := 2 + r.Intn(5)
	uris := make([]string, n)
	for i := range uris {
		uris[i] = fmt.Sprintf("http://example.com/i%d.xml", i)
	}

	p := feed.NewMemoryProvider()
	for i, uri := range uris {
		var impls []*model.Implementation
		for v := 1; v <= 1+r.Intn(4); v++ {
			opts := []implOption{withStability(stabilities[r.Intn(len(stabilities))])}
			for j := i + 1; j < n; j++ {
				if r.Intn(3) != 0 {
					continue
				}
				rng := fmt.Sprintf("%d.0..", 1+r.Intn(3))
				if r.Intn(4) == 0 {
					opts = append(opts, recommends(uris[j], rng))
				} else {
					opts = append(opts, requires(uris[j], rng))
				}
			}
			if i > 0 && r.Intn(8) == 0 {
				opts = append(opts, requires(uris[r.Intn(i)], ""))
			}
			if r.Intn(6) == 0 {
				opts = append(opts, restricts(uris[r.Intn(n)], fmt.Sprintf("..!%d.0", 2+r.Intn(3))))
			}
			impls = append(impls, impl(fmt.Sprintf("%d.0", v), opts...))
		}
		p.Add(feedOf(uri, impls...))
	}
	return p
}

func solveUniverse(seed int64) (*Result, error) {
	return newTestSolver(randomUniverse(seed), testConfig()).
		TrySolve(context.Background(), model.NewRequirements("http://example.com/i0.xml"))
}

func TestSolverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("solving is deterministic", prop.ForAll(
		func(seed int64) bool {
			a, errA := solveUniverse(seed)
			b, errB := solveUniverse(seed)
			if errA != nil || errB != nil {
				return false
			}
			if a.Solved() != b.Solved() {
				return false
			}
			if !a.Solved() {
				return a.Failure.String() == b.Failure.String()
			}
			xa, _ := a.Selections.ToXML()
			xb, _ := b.Selections.ToXML()
			return string(xa) == string(xb)
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("selections satisfy every essential dependency and restriction", prop.ForAll(
		func(seed int64) bool {
			res, err := solveUniverse(seed)
			if err != nil {
				return false
			}
			if !res.Solved() {
				return true
			}
			sels := res.Selections
			for _, sel := range sels.Implementations {
				if sel.Stability == model.StabilityBuggy {
					return false
				}
				for _, dep := range sel.Dependencies {
					target := sels.Get(dep.InterfaceURI)
					if dep.IsEssential() && (target == nil || !dep.Versions.Contains(target.Version)) {
						return false
					}
				}
				for _, r := range sel.Restrictions {
					if target := sels.Get(r.InterfaceURI); target != nil && !r.Versions.Contains(target.Version) {
						return false
					}
				}
			}
			return true
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.TestingRun(t)
}
