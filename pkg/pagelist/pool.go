package pagelist

import "github.com/vibetunnel/screenengine/pkg/page"

// pagePool hands out standard-capacity pages, recycling ones released by
// prune/erase via Reinit instead of letting them be garbage collected.
// This mirrors the teacher's termsocket connection pooling idiom (reuse
// a fixed-shape resource rather than reallocate it every time) applied
// to pages instead of sockets.
type pagePool struct {
	capacity page.Capacity
	free     []*page.Page
}

func newPagePool(capacity page.Capacity) *pagePool {
	return &pagePool{capacity: capacity}
}

func (pp *pagePool) acquire() (*page.Page, error) {
	if n := len(pp.free); n > 0 {
		p := pp.free[n-1]
		pp.free = pp.free[:n-1]
		p.Reinit()
		return p, nil
	}
	return page.Init(pp.capacity)
}

func (pp *pagePool) release(p *page.Page) {
	pp.free = append(pp.free, p)
}
