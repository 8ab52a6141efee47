package job

import (
	"context"

	"github.com/classware/coursechat/internal/ingest"
)

// RescanJob re-walks the document source so courses dropped in after startup
// get picked up without a restart. Already-indexed courses are skipped by
// the loader.
type RescanJob struct {
	loader *ingest.Loader
}

func NewRescanJob(loader *ingest.Loader) *RescanJob {
	return &RescanJob{loader: loader}
}

func (j *RescanJob) Name() string {
	return "docs_rescan"
}

func (j *RescanJob) Run(ctx context.Context) error {
	if j.loader == nil {
		return nil
	}
	_, _, err := j.loader.LoadAll(ctx, false)
	return err
}
