package selection

import (
	"context"
	"os"

	"github.com/matzehuels/feedsolve/pkg/distro"
	"github.com/matzehuels/feedsolve/pkg/store"
)

// IsCached reports whether sel is available without downloading. A local
// path is always cached; a native package is cached when its quick-test
// file exists or the package manager reports it installed; anything else is
// cached when the store holds its digest.
func IsCached(ctx context.Context, sel *Selection, st store.Store, pm distro.Manager) (bool, error) {
	if sel.LocalPath != "" {
		return true, nil
	}
	if sel.IsPackage() {
		if sel.QuickTestFile != "" {
			if _, err := os.Stat(sel.QuickTestFile); err == nil {
				return true, nil
			}
		}
		if pm == nil {
			return false, nil
		}
		impl, err := pm.Lookup(ctx, sel.ID)
		if err != nil {
			return false, err
		}
		return impl != nil && impl.Installed, nil
	}
	return st != nil && st.Contains(sel.Digest), nil
}

// GetUncached returns the selections that still need to be fetched, in
// selection order. A nil store or package manager is treated as empty.
func GetUncached(ctx context.Context, sels *Selections, st store.Store, pm distro.Manager) ([]*Selection, error) {
	var out []*Selection
	for _, sel := range sels.Implementations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cached, err := IsCached(ctx, sel, st, pm)
		if err != nil {
			return nil, err
		}
		if !cached {
			out = append(out, sel)
		}
	}
	return out, nil
}
