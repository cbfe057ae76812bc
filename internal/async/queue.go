package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/pipeline"
)

// Job is one extraction payload waiting to be processed.
type Job struct {
	Source      string // file name or upstream reference, for logs and results
	Payload     []byte
	Options     pipeline.Options
	SubmittedAt time.Time
	TraceID     string
}

// Result reports the outcome of a Job.
type Result struct {
	Job    Job
	Result *entity.ProcessResult
	Err    error
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
