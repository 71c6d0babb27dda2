package segment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/menta2k/product-analyzer/pkg/foreground"
	"github.com/menta2k/product-analyzer/pkg/types"
)

// Cached memoizes another segmenter by the SHA-256 of the encoded image.
// Callers always receive their own copy of a matte.
type Cached struct {
	next  foreground.SubjectSegmenter
	cache *lru.Cache[string, *image.Alpha]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next foreground.SubjectSegmenter, size int) (*Cached, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: nil segmenter", types.ErrInvalidInput)
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *image.Alpha](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create matte cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Segment returns the cached matte for data or computes and stores it.
func (c *Cached) Segment(ctx context.Context, data []byte) (*image.Alpha, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if a, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return cloneAlpha(a), nil
	}
	c.misses.Add(1)

	a, err := c.next.Segment(ctx, data)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}
	c.cache.Add(key, cloneAlpha(a))
	return a, nil
}

// WarmUp forwards to the wrapped segmenter when it supports warm-up.
func (c *Cached) WarmUp(ctx context.Context) error {
	if w, ok := c.next.(foreground.Warmer); ok {
		return w.WarmUp(ctx)
	}
	return nil
}

// Stats reports cache hits and misses since creation.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len is the number of cached mattes.
func (c *Cached) Len() int {
	return c.cache.Len()
}

func cloneAlpha(a *image.Alpha) *image.Alpha {
	out := &image.Alpha{
		Pix:    make([]uint8, len(a.Pix)),
		Stride: a.Stride,
		Rect:   a.Rect,
	}
	copy(out.Pix, a.Pix)
	return out
}
