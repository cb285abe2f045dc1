// Package session owns the collapse state of one diffed file pair and keeps its layout current.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"sidediff/internal/collapse"
	"sidediff/internal/config"
	"sidediff/internal/layout"
	"sidediff/internal/linediff"
)

// ErrRegionNotFound is returned by ExpandRegion for an id that is not in the current plan.
var ErrRegionNotFound = errors.New("collapse region not found")

type State int

const (
	StateEnabled State = iota
	StateDisabled
)

func (s State) String() string {
	if s == StateEnabled {
		return "enabled"
	}
	return "disabled"
}

// ViewState is the user-visible collapse state.
type ViewState struct {
	CollapseEnabled  bool
	ManuallyExpanded []collapse.RegionID
}

// Rows is the rendered row list of both panes.
type Rows struct {
	Base   []layout.VisualRow
	Target []layout.VisualRow
}

// Session is the collapse state machine. It is not safe for concurrent use.
type Session struct {
	cfg    config.Engine
	logger *slog.Logger

	base     linediff.Revision
	target   linediff.Revision
	segments []linediff.Segment
	err      error

	state    State
	regions  []collapse.Region
	expanded map[collapse.RegionID]struct{}
	layout   *layout.Layout

	seq     uint64
	pending int
}

func New(cfg config.Engine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		cfg:      cfg,
		logger:   logger,
		expanded: make(map[collapse.RegionID]struct{}),
	}
	s.reset()
	s.relayout()
	return s
}

// Load switches to a new file pair. Collapse state returns to the configured default and manual expansions are
// forgotten.
func (s *Session) Load(base, target linediff.Revision, segments []linediff.Segment) Rows {
	s.base, s.target, s.segments, s.err = base, target, segments, nil
	s.reset()
	s.relayout()
	s.logger.Debug("diff loaded",
		"base_lines", base.Len(),
		"target_lines", target.Len(),
		"segments", len(segments),
		"regions", len(s.regions),
		"state", s.state)
	return s.Rows()
}

// LoadError puts the session in the diff-unavailable state.
func (s *Session) LoadError(err error) {
	s.base, s.target, s.segments, s.err = linediff.Revision{}, linediff.Revision{}, nil, err
	s.reset()
	s.relayout()
	s.logger.Warn("diff unavailable", "err", err)
}

func (s *Session) reset() {
	s.state = StateDisabled
	if s.cfg.CollapseEnabledByDefault {
		s.state = StateEnabled
	}
	clear(s.expanded)
	s.pending = 0
	s.regions = s.plan(s.state == StateEnabled)
}

func (s *Session) plan(enabled bool) []collapse.Region {
	return collapse.Plan(s.segments, s.cfg.ContextLines, s.cfg.MinCollapseThreshold, enabled)
}

func (s *Session) relayout() {
	s.layout = layout.Build(s.segments, s.regions)
}

// toggle flips the global state. Enabling always re-plans from scratch.
func (s *Session) toggle() {
	clear(s.expanded)
	if s.state == StateEnabled {
		s.state = StateDisabled
		s.regions = collapse.ExpandAll(s.regions)
		return
	}
	s.state = StateEnabled
	s.regions = s.plan(true)
}

// ToggleGlobalCollapse switches between Enabled and Disabled.
func (s *Session) ToggleGlobalCollapse() Rows {
	s.toggle()
	s.relayout()
	s.logger.Debug("collapse toggled", "state", s.state, "regions", len(s.regions))
	return s.Rows()
}

// ExpandRegion reveals one collapsed region. Expanding an already expanded region is a no-op.
func (s *Session) ExpandRegion(id collapse.RegionID) (Rows, error) {
	i := collapse.Find(s.regions, id)
	if i < 0 {
		s.logger.Debug("expand ignored", "region", id.String())
		return s.Rows(), fmt.Errorf("%w: %s", ErrRegionNotFound, id)
	}
	if !s.regions[i].Collapsed {
		return s.Rows(), nil
	}
	s.regions[i].Collapsed = false
	s.expanded[id] = struct{}{}
	s.layout.Expand(id)
	s.logger.Debug("region expanded", "region", id.String(), "lines", s.regions[i].Len())
	return s.Rows(), nil
}

// QueueToggle records a toggle request and returns its sequence number for FlushToggles.
func (s *Session) QueueToggle() uint64 {
	s.seq++
	s.pending++
	return s.seq
}

// FlushToggles applies the queued toggles if seq is the latest request. The result equals applying every queued
// toggle in order, with a single relayout.
func (s *Session) FlushToggles(seq uint64) (Rows, bool) {
	if seq != s.seq || s.pending == 0 {
		return Rows{}, false
	}
	n := s.pending
	s.pending = 0
	if n%2 == 0 {
		s.toggle()
	}
	s.toggle()
	s.relayout()
	s.logger.Debug("toggles coalesced", "count", n, "state", s.state)
	return s.Rows(), true
}

// Pending reports whether toggles are waiting for FlushToggles.
func (s *Session) Pending() bool {
	return s.pending > 0
}

func (s *Session) Rows() Rows {
	return Rows{
		Base:   s.layout.Rows(layout.SideBase),
		Target: s.layout.Rows(layout.SideTarget),
	}
}

func (s *Session) MapLineToRow(side layout.Side, line int) (int, bool) {
	return s.layout.LineToRow(side, line)
}

func (s *Session) MapRowToLine(side layout.Side, row int) (int, bool) {
	return s.layout.RowToLine(side, row)
}

func (s *Session) RowAt(side layout.Side, row int) (layout.VisualRow, bool) {
	return s.layout.RowAt(side, row)
}

func (s *Session) SyncRow(from layout.Side, row int) int {
	return s.layout.SyncRow(from, row)
}

func (s *Session) Blocks() []layout.Block {
	return s.layout.Blocks()
}

func (s *Session) Len(side layout.Side) int {
	return s.layout.Len(side)
}

// Regions returns a copy of the current plan.
func (s *Session) Regions() []collapse.Region {
	return slices.Clone(s.regions)
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) ViewState() ViewState {
	ids := slices.SortedFunc(maps.Keys(s.expanded), func(a, b collapse.RegionID) int {
		if a.Base != b.Base {
			return a.Base - b.Base
		}
		return a.Target - b.Target
	})
	return ViewState{CollapseEnabled: s.state == StateEnabled, ManuallyExpanded: ids}
}

// Identical reports whether the loaded revisions have no changes.
func (s *Session) Identical() bool {
	if s.err != nil {
		return false
	}
	for _, seg := range s.segments {
		if seg.Kind != linediff.KindEqual {
			return false
		}
	}
	return true
}

// Unavailable returns the error passed to LoadError, or nil.
func (s *Session) Unavailable() error {
	return s.err
}

func (s *Session) Segments() []linediff.Segment {
	return s.segments
}

func (s *Session) Base() linediff.Revision {
	return s.base
}

func (s *Session) Target() linediff.Revision {
	return s.target
}

func (s *Session) Config() config.Engine {
	return s.cfg
}
