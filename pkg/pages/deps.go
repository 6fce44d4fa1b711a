package pages

import (
	"context"

	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/store"
	"github.com/joeydtaylor/contentops/pkg/workflow"
	"go.uber.org/zap"
)

// Deps are the collaborators the built-in pages read and write.
type Deps struct {
	Store    *store.Store
	Workflow *workflow.Service
	Blob     blob.Store
	Events   events.Publisher
	Log      *zap.Logger
	Site     Site

	// UploadPath is the multipart route the images page posts files to.
	UploadPath string
}

func (d *Deps) defaults() {
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.UploadPath == "" {
		d.UploadPath = "/api/images"
	}
}

func (d Deps) publish(ctx context.Context, e events.Event) {
	if err := d.Events.Publish(ctx, e); err != nil {
		d.Log.Warn("event publish failed", zap.String("type", e.Type), zap.Error(err))
	}
}

// Default registers the built-in pages.
func Default(d Deps) (*Registry, error) {
	d.defaults()
	r := NewRegistry()
	for _, p := range []Page{
		&Dashboard{d: d},
		&Articles{d: d},
		&Prompts{d: d},
		&Styles{d: d},
		&Images{d: d},
		&Login{d: d},
	} {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}
