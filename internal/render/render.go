// Package render turns page-builder blocks into HTML fragments.
package render

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log"
	"time"

	"github.com/storefront/internal/block"
	"github.com/storefront/internal/metrics"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultFetchTimeout = 5 * time.Second
	defaultConcurrency  = 8
)

// Catalog is the read-only data source of data-bound blocks.
type Catalog interface {
	ListCategories(ctx context.Context, limit int) ([]block.Category, error)
	ResolveCollectionSlug(ctx context.Context, slug string) (uint, error)
	CollectionProductIDs(ctx context.Context, collectionID uint) ([]uint, error)
	ProductsByIDs(ctx context.Context, ids []uint) ([]block.Product, error)
	RecentProducts(ctx context.Context, categorySlug string, limit int) ([]block.Product, error)
}

// Settings are the site-wide values a block may need. They are passed with every render call.
type Settings struct {
	SiteName    string
	Currency    string
	Locale      string
	AccentColor string
}

// Binding carries the enclosing collection when a block is rendered on a collection page.
type Binding struct {
	CollectionID          uint
	CollectionSlug        string
	CollectionTitle       string
	CollectionDescription string
	CollectionImage       string
}

// Empty reports whether neither an id nor a slug is available.
func (b Binding) Empty() bool {
	return b.CollectionID == 0 && b.CollectionSlug == ""
}

// Context is threaded through a render call.
type Context struct {
	Settings Settings
	Binding  Binding
	// Preview renders markers visibly for the page builder.
	Preview bool
	// FragmentURL, when set, makes data-bound blocks render a loading placeholder that fetches
	// the finished block from the returned URL.
	FragmentURL func(blockID string) string
}

type renderFunc func(r *Renderer, ctx context.Context, b block.Block, rc Context) (string, any)

// Renderer renders blocks. It is safe for concurrent use.
type Renderer struct {
	catalog      Catalog
	templates    *template.Template
	fetchTimeout time.Duration
	concurrency  int
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithFetchTimeout bounds the data queries of each block.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

// WithConcurrency bounds how many sibling blocks render at once.
func WithConcurrency(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// New parses the block templates and returns a Renderer reading from catalog.
func New(catalog Catalog, opts ...Option) (*Renderer, error) {
	tmpl, err := template.New("blocks").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		catalog:      catalog,
		templates:    tmpl,
		fetchTimeout: defaultFetchTimeout,
		concurrency:  defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// rendererFor maps every renderable kind to its renderer. Markers and unknown kinds map to nil.
func rendererFor(kind block.Kind) renderFunc {
	switch kind {
	case block.KindHero:
		return renderHero
	case block.KindCategoryGrid:
		return renderCategoryGrid
	case block.KindCollectionGrid:
		return renderCollectionGrid
	case block.KindFeaturedProducts:
		return renderFeaturedProducts
	case block.KindRichText:
		return renderRichText
	case block.KindImageBanner:
		return renderImageBanner
	case block.KindSpacer:
		return renderSpacer
	case block.KindProductGrid:
		return nil
	default:
		return nil
	}
}

// RenderBlock renders one block. Unknown kinds and markers produce empty output.
// Failures never escape: they degrade to the block's empty state.
func (r *Renderer) RenderBlock(ctx context.Context, b block.Block, rc Context) template.HTML {
	if b.Type.IsMarker() && rc.Preview {
		return r.execute(b, "marker", loadingView{ID: b.ID, Kind: string(b.Type)})
	}
	fn := rendererFor(b.Type)
	if fn == nil {
		return ""
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[block %s] render panic for %q: %v", b.Type, b.ID, rec)
		}
	}()

	if rc.FragmentURL != nil && b.Type.DataBound() {
		return r.execute(b, "loading", loadingView{ID: b.ID, Kind: string(b.Type), URL: rc.FragmentURL(b.ID)})
	}

	name, view := fn(r, ctx, b, rc)
	if name == "" {
		return ""
	}
	metrics.BlockRenders.WithLabelValues(string(b.Type)).Inc()
	return r.execute(b, name, view)
}

// RenderSequence renders sibling blocks concurrently and returns fragments in sequence order.
// When ctx is cancelled before all blocks finish, the partial results are discarded.
func (r *Renderer) RenderSequence(ctx context.Context, blocks []block.Block, rc Context) []template.HTML {
	out := make([]template.HTML, len(blocks))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range blocks {
		g.Go(func() error {
			out[i] = r.RenderBlock(ctx, blocks[i], rc)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return out
}

// RenderSlots renders a composed page. Blocks and the listing slot render concurrently; the listing
// lists the products of rc.Binding. Order follows slots.
func (r *Renderer) RenderSlots(ctx context.Context, slots []block.Slot, rc Context) []template.HTML {
	out := make([]template.HTML, len(slots))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, s := range slots {
		g.Go(func() error {
			switch {
			case s.Listing:
				out[i] = r.renderBoundListing(ctx, rc)
			case s.Block != nil:
				out[i] = r.RenderBlock(ctx, *s.Block, rc)
			}
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return out
}

func (r *Renderer) execute(b block.Block, name string, view any) template.HTML {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, view); err != nil {
		log.Printf("[block %s] template %s failed for %q: %v", b.Type, name, b.ID, err)
		return ""
	}
	return template.HTML(buf.String())
}

// fetchContext bounds one block's queries and records how long they took.
func (r *Renderer) fetchContext(ctx context.Context, kind block.Kind) (context.Context, func()) {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	return fetchCtx, func() {
		cancel()
		metrics.BlockFetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
}

func fetchFailed(b block.Block, step string, err error) {
	metrics.BlockFetchFailures.WithLabelValues(string(b.Type)).Inc()
	log.Printf("[block %s] %s failed for %q: %v", b.Type, step, b.ID, err)
}

type loadingView struct {
	ID   string
	Kind string
	URL  string
}
