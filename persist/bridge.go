package persist

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"crsl/carousel"
	"crsl/config"
	"crsl/editor"
	"crsl/paint"
	"crsl/surface"
)

// Bridge connects editing session with storage and export collaborators.
type Bridge struct {
	log   *zap.Logger
	store Storage
	cfg   *config.ExportConfig
}

func NewBridge(store Storage, cfg *config.ExportConfig, log *zap.Logger) *Bridge {
	return &Bridge{log: log.Named("persist"), store: store, cfg: cfg}
}

// Save reconciles session into document and stores it under document id.
// Session is marked saved only up to edits which made it into the stored
// document, edits arriving meanwhile keep it dirty.
func (b *Bridge) Save(ctx context.Context, doc *carousel.Document, s *editor.Session, mounts *surface.Mounts) (*carousel.Document, error) {
	if b.store == nil {
		return nil, fmt.Errorf("document %s: no storage configured", doc.ID)
	}
	var at uint64
	if s != nil {
		at = s.Modifications()
	}
	final := Reconcile(doc, s, mounts, b.log)
	if err := b.store.Save(ctx, final.ID, final); err != nil {
		b.log.Warn("Unable to save document", zap.String("id", final.ID), zap.Error(err))
		return nil, err
	}
	if s != nil {
		s.MarkSaved(at)
	}
	b.log.Info("Document saved", zap.String("id", final.ID), zap.Int("slides", len(final.Slides)))
	return final, nil
}

// Export captures every mounted slide and writes encoded images through exp.
// Slide which could not be captured does not prevent others from being
// exported, all failures are reported together. Names of written files are
// returned in slide order.
func (b *Bridge) Export(ctx context.Context, mounts *surface.Mounts, exp Exporter) ([]string, error) {
	var (
		names []string
		errs  error
	)
	for _, srf := range mounts.All() {
		if err := ctx.Err(); err != nil {
			return names, multierr.Append(errs, err)
		}
		name := SlideName(srf.Slide(), b.cfg.Format.Ext())
		img, err := srf.CaptureSnapshot(ctx)
		if err != nil {
			b.log.Warn("Unable to capture slide", zap.Int("slide", srf.Slide()), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("slide %d: %w", srf.Slide()+1, err))
			continue
		}
		data, err := paint.Encode(img, b.cfg.Format, b.cfg.JPEGQuality)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("slide %d: %w", srf.Slide()+1, err))
			continue
		}
		if err := exp.Write(name, data); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("slide %d: unable to write %s: %w", srf.Slide()+1, name, err))
			continue
		}
		b.log.Debug("Slide exported", zap.String("name", name), zap.Int("bytes", len(data)))
		names = append(names, name)
	}
	return names, errs
}
