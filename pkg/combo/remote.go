package combo

import (
	"context"
	"errors"

	"github.com/oakwood-commons/combo/pkg/navigation"
	"github.com/oakwood-commons/combo/pkg/selection"
)

// ErrNoRemote is returned by Refresh when no remote provider is attached.
var ErrNoRemote = errors.New("no remote provider")

// Request describes the data a remote widget needs.
type Request struct {
	Window     navigation.Window
	SearchText string
}

// Result is one page of remote data.
type Result[T any] struct {
	Items      []T
	TotalCount int
}

// RemoteProvider fetches items for a window and search text.
type RemoteProvider[T any] interface {
	Fetch(ctx context.Context, req Request) (Result[T], error)
}

// RemoteProviderFunc adapts a function to RemoteProvider.
type RemoteProviderFunc[T any] func(ctx context.Context, req Request) (Result[T], error)

// Fetch implements RemoteProvider.
func (f RemoteProviderFunc[T]) Fetch(ctx context.Context, req Request) (Result[T], error) {
	return f(ctx, req)
}

// Response is a completed fetch tagged with the sequence number of its
// request.
type Response[T any] struct {
	Seq    uint64
	Result Result[T]
	Err    error
}

// Refresh starts a fetch for the current window and search text on its
// own goroutine. The response arrives on the returned channel and must be
// handed back to ApplyRemote on the widget's goroutine.
func (c *core[T]) Refresh(ctx context.Context) (<-chan Response[T], error) {
	if c.remote == nil {
		return nil, ErrNoRemote
	}
	c.requested++
	seq := c.requested
	req := Request{SearchText: c.search}
	if c.provider != nil {
		req.Window = c.provider.VisibleWindow()
	}
	c.log.V(1).Info("fetching remote data", "id", c.id, "seq", seq, "search", req.SearchText)

	out := make(chan Response[T], 1)
	remote := c.remote
	go func() {
		defer close(out)
		res, err := remote.Fetch(ctx, req)
		out <- Response[T]{Seq: seq, Result: res, Err: err}
	}()
	return out, nil
}

// ApplyRemote installs a fetched page. Responses are applied last write
// wins by request order: a response older than one already applied is
// dropped. It reports whether the page was applied.
func (c *core[T]) ApplyRemote(resp Response[T]) bool {
	if resp.Err != nil {
		c.log.Error(resp.Err, "remote fetch failed", "id", c.id, "seq", resp.Seq)
		return false
	}
	if resp.Seq <= c.applied {
		c.log.V(1).Info("dropping stale remote response", "id", c.id, "seq", resp.Seq, "applied", c.applied)
		return false
	}
	c.applied = resp.Seq
	c.totalCount = resp.Result.TotalCount
	c.SetData(resp.Result.Items)
	for _, k := range c.value {
		if item, ok := c.ItemByKey(k); ok {
			c.remoteText[selection.Canonical(k)] = c.DisplayOf(item)
		}
	}
	return true
}

// watchRemote fetches a page whenever the provider window changes for a
// reason other than the widget's own refilter.
func (c *core[T]) watchRemote() {
	if !c.opts.Remote || c.remote == nil || c.provider == nil {
		return
	}
	c.unwatch = c.provider.OnContentChanged(func(navigation.Window) {
		if !c.quiet {
			c.fetch("window")
		}
	})
}

// fetch starts a sequenced request for the current window and search text
// and hands the response channel to the sink.
func (c *core[T]) fetch(cause string) {
	if !c.opts.Remote || c.remote == nil {
		return
	}
	ch, err := c.Refresh(context.Background())
	if err != nil {
		c.log.Error(err, "remote fetch not started", "id", c.id, "cause", cause)
		return
	}
	c.log.V(1).Info("remote fetch triggered", "id", c.id, "cause", cause, "seq", c.requested)
	if c.sink != nil {
		c.sink(ch)
		return
	}
	for resp := range ch {
		c.ApplyRemote(resp)
	}
}

// hush runs fn without window changes triggering fetches.
func (c *core[T]) hush(fn func()) {
	prev := c.quiet
	c.quiet = true
	defer func() { c.quiet = prev }()
	fn()
}

// TotalCount returns the size of the remote collection as last reported.
func (c *core[T]) TotalCount() int {
	if !c.opts.Remote {
		return len(c.data)
	}
	return c.totalCount
}

// registerRemote caches the display text of newly selected keys so it
// survives the items scrolling out of the loaded window.
func (c *core[T]) registerRemote(keys []Key) {
	for _, k := range keys {
		if item, ok := c.ItemByKey(k); ok {
			c.remoteText[selection.Canonical(k)] = c.DisplayOf(item)
		}
	}
}

// syncRemote settles the cache against the committed set, which a handler
// may have rewritten. Only committed keys keep cached text.
func (c *core[T]) syncRemote(old, committed *selection.Set, proposed []Key) {
	added, removed := selection.Diff(old, committed)
	for _, k := range proposed {
		if !committed.Has(k) {
			removed = append(removed, k)
		}
	}
	c.unregisterRemote(removed)
	c.registerRemote(added)
}

func (c *core[T]) unregisterRemote(keys []Key) {
	for _, k := range keys {
		if selection.ValidKey(k) {
			delete(c.remoteText, selection.Canonical(k))
		}
	}
}
