package feed

import (
	"context"

	"github.com/matzehuels/feedsolve/pkg/model"
)

// Router sends local URIs to Local and everything else to Remote.
// A nil side reports every URI it would receive as not found.
type Router struct {
	Local  Provider
	Remote Provider
}

// GetFeed implements Provider.
func (r Router) GetFeed(ctx context.Context, uri string) (*model.Feed, error) {
	if err := model.ValidateURI(uri); err != nil {
		return nil, err
	}
	target := r.Remote
	if model.IsLocalURI(uri) {
		target = r.Local
	}
	if target == nil {
		return nil, notFound(uri, nil)
	}
	return target.GetFeed(ctx, uri)
}
