// Package editor keeps state of one editing session: edited values, style
// overrides, selection and modification counter driving autosave.
package editor

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crsl/carousel"
	"crsl/common"
	"crsl/css"
	"crsl/surface"
)

// DefaultAutosaveEvery is autosave threshold used when none is configured.
const DefaultAutosaveEvery = 5

const autosaveTimeout = 30 * time.Second

// Key addresses edited field of a slide.
type Key struct {
	Slide int
	Field common.RegionType
}

// Edit is single edited value. Seq orders writes within session.
type Edit struct {
	Key
	Value string
	Seq   uint64
}

// SaveFunc persists current session state.
type SaveFunc func(ctx context.Context) error

// Notifier presents transient non-blocking notifications.
type Notifier interface {
	Notify(message string, err error)
}

// NotifierFunc adapts function to Notifier.
type NotifierFunc func(message string, err error)

func (f NotifierFunc) Notify(message string, err error) { f(message, err) }

// Option configures session.
type Option func(*Session)

// WithAutosave calls save every time modification counter becomes positive
// multiple of every.
func WithAutosave(every int, save SaveFunc) Option {
	return func(s *Session) {
		if every > 0 {
			s.every = every
		}
		s.save = save
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithMounts attaches registry of mounted surfaces, selection markers are
// maintained on it.
func WithMounts(m *surface.Mounts) Option {
	return func(s *Session) {
		s.mounts = m
	}
}

// Session is created when document is opened for editing and passed by
// reference to every collaborator.
type Session struct {
	id       string
	log      *zap.Logger
	every    int
	save     SaveFunc
	notifier Notifier
	mounts   *surface.Mounts

	mu        sync.Mutex
	edits     map[Key]Edit
	styles    map[Key]css.Style
	selection *surface.Element
	seq       uint64
	mods      uint64
	saved     uint64
}

// New creates session for document docID.
func New(docID string, log *zap.Logger, opts ...Option) *Session {
	s := &Session{
		id:     uuid.Must(uuid.NewV7()).String(),
		log:    log.Named("editor").With(zap.String("document", docID)),
		every:  DefaultAutosaveEvery,
		edits:  make(map[Key]Edit),
		styles: make(map[Key]css.Style),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Mounts returns attached surfaces registry, may be nil.
func (s *Session) Mounts() *surface.Mounts {
	return s.mounts
}

// SetMounts attaches registry of mounted surfaces.
func (s *Session) SetMounts(m *surface.Mounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounts = m
}

// modified must be called with lock held, it returns true when autosave is due.
func (s *Session) modified() bool {
	s.mods++
	return s.save != nil && s.mods%uint64(s.every) == 0
}

// SetEditedValue records value of slide field.
func (s *Session) SetEditedValue(slide int, field common.RegionType, value string) {
	s.mu.Lock()
	s.seq++
	k := Key{Slide: slide, Field: field}
	s.edits[k] = Edit{Key: k, Value: value, Seq: s.seq}
	due := s.modified()
	s.mu.Unlock()

	s.log.Debug("Value edited", zap.Int("slide", slide), zap.Stringer("field", field))
	if due {
		s.autosave()
	}
}

// GetEditedValue returns edited value or fallback when field was not edited.
// Profile fields are shared by all slides, the most recent write on any
// slide wins.
func (s *Session) GetEditedValue(slide int, field common.RegionType, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field.IsProfile() {
		if e, ok := s.latestProfile(field); ok {
			return e.Value
		}
		return fallback
	}
	if e, ok := s.edits[Key{Slide: slide, Field: field}]; ok {
		return e.Value
	}
	return fallback
}

func (s *Session) latestProfile(field common.RegionType) (Edit, bool) {
	var (
		last  Edit
		found bool
	)
	for k, e := range s.edits {
		if k.Field == field && (!found || e.Seq > last.Seq) {
			last, found = e, true
		}
	}
	return last, found
}

// SetElementStyle merges patch into style override of element. Properties
// not present in patch keep their values. Patch without values is ignored.
func (s *Session) SetElementStyle(slide int, t common.RegionType, patch css.Style) {
	if len(css.Style{}.Merge(patch)) == 0 {
		return
	}
	s.mu.Lock()
	k := Key{Slide: slide, Field: t}
	s.styles[k] = s.styles[k].Merge(patch)
	due := s.modified()
	s.mu.Unlock()

	s.log.Debug("Style edited", zap.Int("slide", slide), zap.Stringer("element", t), zap.String("patch", patch.String()))
	if due {
		s.autosave()
	}
}

// ElementStyle returns copy of style override, nil when element has none.
func (s *Session) ElementStyle(slide int, t common.RegionType) css.Style {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.styles[Key{Slide: slide, Field: t}]
	if !ok {
		return nil
	}
	return st.Clone()
}

// Select records selected element.
func (s *Session) Select(e surface.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = &e
}

// Selection returns selected element.
func (s *Session) Selection() (surface.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return surface.Element{}, false
	}
	return *s.selection, true
}

// ClearSelections resets selection and removes selected marker from every
// mounted surface.
func (s *Session) ClearSelections() {
	s.mu.Lock()
	s.selection = nil
	m := s.mounts
	s.mu.Unlock()
	m.ClearSelected()
}

// Modifications returns number of edits made in the session.
func (s *Session) Modifications() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mods
}

// Dirty reports whether there are edits made after last successful save.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mods != s.saved
}

// MarkSaved records that state up to modification at was persisted. Edits
// are kept, document rebuilt from them stays the same.
func (s *Session) MarkSaved(at uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = max(s.saved, min(at, s.mods))
}

// Edits returns edited values in write order.
func (s *Session) Edits() []Edit {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Edit, 0, len(s.edits))
	for _, e := range s.edits {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edit) int { return cmp.Compare(a.Seq, b.Seq) })
	return out
}

// Styles returns copy of all style overrides.
func (s *Session) Styles() carousel.ElementStyles {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(carousel.ElementStyles)
	for k, st := range s.styles {
		out.Merge(k.Slide, k.Field, st)
	}
	return out
}

// Forget drops edits and styles of slide and shifts entries of following
// slides, used when slide is deleted.
func (s *Session) Forget(slide int) {
	s.mu.Lock()

	edits := make(map[Key]Edit, len(s.edits))
	for k, e := range s.edits {
		switch {
		case k.Slide == slide && !k.Field.IsProfile():
			continue
		case k.Slide > slide:
			k.Slide--
			e.Key = k
		}
		// shifted profile edit may land on key of one made on deleted slide
		if prev, ok := edits[k]; ok && prev.Seq > e.Seq {
			continue
		}
		edits[k] = e
	}
	styles := make(map[Key]css.Style, len(s.styles))
	for k, st := range s.styles {
		switch {
		case k.Slide == slide:
			continue
		case k.Slide > slide:
			k.Slide--
		}
		styles[k] = st
	}
	s.edits, s.styles = edits, styles
	if s.selection != nil && s.selection.Slide == slide {
		s.selection = nil
	}
	due := s.modified()
	s.mu.Unlock()

	if due {
		s.autosave()
	}
}

func (s *Session) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	n := s.Modifications()
	s.log.Debug("Autosave", zap.Uint64("modifications", n))
	if err := s.save(ctx); err != nil {
		s.log.Warn("Autosave failed, edits are kept", zap.Error(err))
		if s.notifier != nil {
			s.notifier.Notify("Autosave failed", err)
		}
	}
}
