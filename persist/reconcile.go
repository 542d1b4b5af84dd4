// Package persist reconciles editing session with live surfaces into final
// document and hands it to storage and export collaborators.
package persist

import (
	"strings"

	"go.uber.org/zap"

	"crsl/carousel"
	"crsl/common"
	"crsl/css"
	"crsl/editor"
	"crsl/inject"
	"crsl/surface"
)

// inlineChanger is implemented by surfaces which could be mutated directly,
// bypassing the editor session.
type inlineChanger interface {
	InlineChanges(t common.RegionType) css.Style
}

// textChanger is implemented by surfaces which remember text regions content
// as it was rendered.
type textChanger interface {
	TextChange(t common.RegionType) (live, rendered string, err error)
}

// folded lists style properties picked up from live surfaces.
var folded = []string{"backgroundColor"}

// Reconcile produces document to be saved: edited values and style overrides
// of the session applied to copy of doc, then content of sandboxed regions
// changed directly on live surfaces since they were rendered folded in.
// Session stays authoritative for everything else, surfaces not re-rendered
// after an edit still show previous values. Original document is not
// modified.
func Reconcile(doc *carousel.Document, s *editor.Session, mounts *surface.Mounts, log *zap.Logger) *carousel.Document {
	out := doc.Clone()
	if s != nil {
		// write order, so the latest profile edit wins
		for _, e := range s.Edits() {
			if err := out.SetField(e.Slide, e.Field, e.Value); err != nil {
				log.Debug("Edit skipped", zap.Int("slide", e.Slide), zap.Stringer("field", e.Field), zap.Error(err))
			}
		}
		for slide, m := range s.Styles() {
			if slide < 0 || slide >= len(out.Slides) {
				continue
			}
			for t, st := range m {
				out.PerElementStyles.Merge(slide, t, st)
			}
		}
	}
	if mounts == nil {
		return out
	}
	for _, srf := range mounts.All() {
		if srf.Strategy() != common.StrategySandboxed {
			continue
		}
		i := srf.Slide()
		if i < 0 || i >= len(out.Slides) {
			continue
		}
		if tc, ok := srf.(textChanger); ok {
			for _, t := range common.RegionTypeValues() {
				if !t.IsText() {
					continue
				}
				live, rendered, err := tc.TextChange(t)
				if err != nil {
					continue
				}
				v, ok := liveText(live, rendered)
				if !ok {
					continue
				}
				if err := out.SetField(i, t, v); err != nil {
					log.Debug("Live value skipped", zap.Int("slide", i), zap.Stringer("field", t), zap.Error(err))
				}
			}
		}
		ic, ok := srf.(inlineChanger)
		if !ok {
			continue
		}
		for _, t := range common.RegionTypeValues() {
			changes := ic.InlineChanges(t)
			patch := css.Style{}
			for _, name := range folded {
				if v := changes.Get(name, ""); v != "" && out.PerElementStyles.Get(i, t).Get(name, "") != v {
					patch[name] = v
				}
			}
			out.PerElementStyles.Merge(i, t, patch)
		}
	}
	return out
}

// liveText decides whether live region content replaces stored value, live
// is compared with what surface showed when rendered.
// Templates are free to change case and spacing of what they show, so only
// changes of text itself or of its formatting count.
func liveText(live, rendered string) (string, bool) {
	if foldText(inject.PlainText(live)) != foldText(inject.PlainText(rendered)) {
		if inject.HasFormatting(live) {
			return strings.TrimSpace(live), true
		}
		return strings.TrimSpace(inject.PlainText(live)), true
	}
	if inject.HasFormatting(live) && !inject.HasFormatting(rendered) {
		return strings.TrimSpace(live), true
	}
	return "", false
}

func foldText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
