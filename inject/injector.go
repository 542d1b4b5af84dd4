package inject

import (
	"html"

	"go.uber.org/zap"

	"crsl/common"
	"crsl/surface"
)

// textOrder is order in which text regions are tagged, first match wins so
// short profile strings go before slide copy which may contain them.
var textOrder = []common.RegionType{
	common.RegionTypeName,
	common.RegionTypeHandle,
	common.RegionTypeTitle,
	common.RegionTypeSubtitle,
}

// Report describes injection outcome per region type.
type Report struct {
	Marked    []common.RegionType
	Existing  []common.RegionType
	Unmatched []common.RegionType
}

// Injector tags slide markup with region markers.
type Injector struct {
	log *zap.Logger
}

// New returns Injector.
func New(log *zap.Logger) *Injector {
	return &Injector{log: log.Named("inject")}
}

// Inject marks all regions of slide sd found in markup and appends
// interaction stylesheet. Regions which cannot be found stay inert, this is
// reported but never an error.
func (in *Injector) Inject(markup string, sd surface.SlideData) (string, Report) {
	var rep Report

	record := func(t common.RegionType, id string, ok bool, out string) string {
		switch {
		case ok:
			rep.Marked = append(rep.Marked, t)
		case HasMarker(out, id):
			rep.Existing = append(rep.Existing, t)
		default:
			rep.Unmatched = append(rep.Unmatched, t)
		}
		return out
	}

	for _, t := range textOrder {
		value := sd.Value(t)
		if value == "" {
			continue
		}
		id := surface.MarkerID(sd.Index, t)
		plain := PlainText(value)
		out, ok := WrapText(markup, plain, id, t)
		markup = record(t, id, ok, out)
		if ok && HasFormatting(value) {
			if out, replaced := ReplaceInner(markup, id, value); replaced {
				markup = out
			}
		}
	}

	for _, t := range []common.RegionType{common.RegionTypeImage, common.RegionTypeAvatar} {
		src := sd.Value(t)
		if src == "" {
			continue
		}
		id := surface.MarkerID(sd.Index, t)
		out, ok := MarkImage(markup, src, id, t)
		if !ok && !HasMarker(out, id) {
			// templates may write src escaped
			out, ok = MarkImage(markup, html.UnescapeString(src), id, t)
		}
		markup = record(t, id, ok, out)
	}

	id := surface.MarkerID(sd.Index, common.RegionTypeBackground)
	out, ok := MarkContainer(markup, id)
	markup = record(common.RegionTypeBackground, id, ok, out)

	markup, _ = AppendInteractionCSS(markup)

	if len(rep.Unmatched) > 0 {
		in.log.Debug("Regions left inert, content not found in markup",
			zap.Int("slide", sd.Index),
			zap.Stringers("regions", rep.Unmatched))
	}
	return markup, rep
}
