package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/classware/coursechat/internal/model"
	errs "github.com/classware/coursechat/internal/pkg/errors"
)

// DefaultTopK bounds the retrieved context fed into the synthesizer prompt.
const DefaultTopK = 5

// Search embeds the query and returns the topK most similar chunks, best
// first, ties resolved by ingestion order. An empty index yields an empty
// result, not an error.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.ErrInvalid
	}
	if topK <= 0 {
		return nil, errs.ErrInvalid
	}
	emb, err := ix.embedder.Embed(ctx, query, taskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %s", errs.ErrUnavailable, err)
	}
	return ix.store.Search(ctx, emb, topK)
}
