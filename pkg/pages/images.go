package pages

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeydtaylor/contentops/pkg/a2ui"
	"github.com/joeydtaylor/contentops/pkg/blob"
	"github.com/joeydtaylor/contentops/pkg/events"
	"github.com/joeydtaylor/contentops/pkg/store"
	"go.uber.org/zap"
)

// Images lists uploaded images. Uploads post to Deps.UploadPath as
// multipart forms; only deletion runs as an action.
type Images struct{ d Deps }

func (*Images) Name() string  { return "images" }
func (*Images) Title() string { return "Images" }

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func (p *Images) Build(ctx context.Context, req Request) (a2ui.Node, error) {
	images, err := p.d.Store.ListImages(ctx)
	if err != nil {
		return a2ui.Node{}, fmt.Errorf("images: %w", err)
	}

	upload := a2ui.Card("Upload",
		a2ui.New(a2ui.KindForm,
			a2ui.Input("file", "Image").With("inputType", "file").With("accept", "image/*").With("required", true),
		).With("upload", p.d.UploadPath+"?redirect="+req.Path).With("submitLabel", "Upload"),
	)

	var gallery a2ui.Node
	if len(images) == 0 {
		gallery = a2ui.Empty("No images", "Uploaded images appear here.")
	} else {
		cards := make([]a2ui.Node, 0, len(images))
		for _, im := range images {
			cards = append(cards, a2ui.Card(im.Name,
				a2ui.Image(im.URL, im.Name),
			).
				With("subtitle", humanSize(im.Size)).
				With("onClick", a2ui.Act("viewImage", im.ID)).
				With("footer", []any{
					a2ui.Button("Delete", a2ui.Act("deleteImage", im.ID).Stop()).With("variant", "danger"),
				}).
				WithID("image-"+im.ID))
		}
		gallery = a2ui.Grid(4, cards...)
	}

	page := a2ui.Column(a2ui.Heading(1, "Images"), upload, gallery).With("gap", 16)

	if req.Query.Get("modal") == "image" {
		im, err := p.d.Store.GetImage(ctx, req.Query.Get("id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			page = page.Append(a2ui.Alert("warning", "That image no longer exists."))
		case err != nil:
			return a2ui.Node{}, err
		default:
			page = page.Append(a2ui.Modal(im.Name,
				a2ui.Image(im.URL, im.Name),
				a2ui.Code(im.URL, "text"),
				a2ui.Text(im.ContentType+" · "+humanSize(im.Size)).With("variant", "caption"),
			).With("onClose", a2ui.Act("closeImage")))
		}
	}
	return page, nil
}

func (p *Images) Actions() Actions {
	return Actions{
		"viewImage": func(_ context.Context, req Request, args []any) (Outcome, error) {
			return Outcome{Redirect: req.Link("modal", "image", "id", argString(args, 0))}, nil
		},
		"closeImage": func(_ context.Context, req Request, _ []any) (Outcome, error) {
			return Outcome{Redirect: req.Path}, nil
		},
		"deleteImage": p.delete,
	}
}

func (p *Images) delete(ctx context.Context, req Request, args []any) (Outcome, error) {
	im, err := p.d.Store.GetImage(ctx, argString(args, 0))
	if err != nil {
		return Outcome{}, err
	}
	if err := p.d.Blob.Delete(ctx, im.Key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return Outcome{}, err
	}
	if err := p.d.Store.DeleteImage(ctx, im.ID); err != nil {
		return Outcome{}, err
	}
	p.d.Log.Info("image deleted", zap.String("id", im.ID), zap.String("key", im.Key))
	p.d.publish(ctx, events.New(events.ImageDeleted, im.ID, req.User.Username, map[string]any{"key": im.Key}))
	return Outcome{Redirect: req.Path, Notice: "Image deleted"}, nil
}
