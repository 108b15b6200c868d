package assistant

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/geauxailabs/glassprompt/internal/convo"
	"github.com/geauxailabs/glassprompt/internal/device"
	"github.com/geauxailabs/glassprompt/internal/observability"
	"github.com/geauxailabs/glassprompt/internal/paginate"
)

const clearedSplash = "History cleared.\nReady for new prompts."

// NavAction classifies a button press into a display operation.
type NavAction string

const (
	NavNext     NavAction = "next"
	NavPrevious NavAction = "previous"
	NavClear    NavAction = "clear"
)

// DisplayConfig sizes pages and paces the auto-advance slideshow.
type DisplayConfig struct {
	CharsPerLine int
	LinesPerPage int
	PageDelay    time.Duration
}

// DisplayDriver walks a paginated response across the glasses display. A new
// response auto-advances page by page on a timer; any manual navigation stops
// the slideshow and the user keeps control from there.
type DisplayDriver struct {
	store    *convo.Store
	registry *device.Registry
	metrics  *observability.Metrics
	cfg      DisplayConfig
}

func NewDisplayDriver(store *convo.Store, registry *device.Registry, metrics *observability.Metrics, cfg DisplayConfig) *DisplayDriver {
	if cfg.CharsPerLine <= 0 {
		cfg.CharsPerLine = paginate.DefaultCharsPerLine
	}
	if cfg.LinesPerPage <= 0 {
		cfg.LinesPerPage = paginate.DefaultLinesPerPage
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 5 * time.Second
	}
	return &DisplayDriver{store: store, registry: registry, metrics: metrics, cfg: cfg}
}

// ShowResponse paginates a fresh response, renders page 0, and kicks off the
// auto-advance slideshow when there is more than one page.
func (d *DisplayDriver) ShowResponse(userID, text string) {
	pages := paginate.Pages(text, d.cfg.CharsPerLine, d.cfg.LinesPerPage)
	d.store.SetPages(userID, pages)
	if !d.renderPage(userID, pages, 0, "") {
		return
	}
	if len(pages) > 1 {
		go d.autoAdvance(userID, pages)
	}
}

// autoAdvance steps through the remaining pages. Before each step it
// re-checks the cursor; if a button press moved it during the wait, the
// slideshow yields.
func (d *DisplayDriver) autoAdvance(userID string, pages []string) {
	for expected := 0; expected+1 < len(pages); expected++ {
		time.Sleep(d.cfg.PageDelay)
		next, ok := d.store.AdvanceIfCurrent(userID, expected)
		if !ok {
			log.Debug().Str("user_id", userID).Int("page_index", next).Msg("auto-advance yielded to manual navigation")
			return
		}
		if !d.renderPage(userID, pages, next, "") {
			return
		}
	}
}

// Navigate applies one classified button action against the current pages.
func (d *DisplayDriver) Navigate(userID string, action NavAction) {
	if action == NavClear {
		d.store.Clear(userID)
		d.showText(userID, clearedSplash)
		return
	}

	snap := d.store.Snapshot(userID)
	if len(snap.Pages) == 0 {
		d.replayLast(userID, snap.LastResponse)
		return
	}

	target := snap.PageIndex
	hint := ""
	switch action {
	case NavNext:
		if snap.PageIndex+1 >= len(snap.Pages) {
			hint = "end"
		} else {
			target = snap.PageIndex + 1
		}
	case NavPrevious:
		if snap.PageIndex == 0 {
			hint = "start"
		} else {
			target = snap.PageIndex - 1
		}
	}

	index := d.store.SetPageIndex(userID, target)
	d.renderPage(userID, snap.Pages, index, hint)
}

// replayLast re-paginates the last response when no pages are live yet. With
// nothing to replay it leaves the display alone.
func (d *DisplayDriver) replayLast(userID, lastResponse string) {
	if lastResponse == "" {
		return
	}
	pages := paginate.Pages(lastResponse, d.cfg.CharsPerLine, d.cfg.LinesPerPage)
	d.store.SetPages(userID, pages)
	d.renderPage(userID, pages, 0, "")
}

// renderPage writes one page to the device, with a position suffix when the
// response spans multiple pages. Returns false when the render did not land;
// the caller must abort its sequence, never retry.
func (d *DisplayDriver) renderPage(userID string, pages []string, index int, hint string) bool {
	if index < 0 || index >= len(pages) {
		return false
	}
	text := pages[index]
	switch {
	case hint != "":
		text = fmt.Sprintf("%s\n\n(%d/%d, %s)", text, index+1, len(pages), hint)
	case len(pages) > 1:
		text = fmt.Sprintf("%s\n\n(%d/%d)", text, index+1, len(pages))
	}
	return d.showText(userID, text)
}

// showText is the best-effort display write every render funnels through.
func (d *DisplayDriver) showText(userID, text string) bool {
	h, ok := d.registry.Lookup(userID)
	if !ok {
		d.metrics.DisplayRenders.WithLabelValues("no_device").Inc()
		return false
	}
	if err := h.ShowText(text); err != nil {
		d.metrics.DisplayRenders.WithLabelValues("failed").Inc()
		log.Debug().Str("user_id", userID).Err(err).Msg("display write failed")
		return false
	}
	d.metrics.DisplayRenders.WithLabelValues("ok").Inc()
	return true
}
