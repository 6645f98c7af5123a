package feed

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/observability"
)

// LocalProvider reads feeds named by absolute paths or file:// URIs.
type LocalProvider struct {
	Logger *log.Logger
}

// NewLocalProvider creates a LocalProvider.
func NewLocalProvider(logger *log.Logger) *LocalProvider {
	if logger == nil {
		logger = discardLogger()
	}
	return &LocalProvider{Logger: logger}
}

// GetFeed implements Provider.
func (p *LocalProvider) GetFeed(ctx context.Context, uri string) (f *model.Feed, err error) {
	start := time.Now()
	defer func() { observability.Feed().OnFeedLoad(ctx, uri, "local", time.Since(start), err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !model.IsLocalURI(uri) {
		return nil, notFound(uri, nil)
	}
	path := model.LocalPath(uri)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound(uri, err)
	}
	if err != nil {
		return nil, parseError(uri, err)
	}
	return Parse(data, uri, ParseOptions{BaseDir: filepath.Dir(path), Logger: p.Logger})
}
