// internal/store/archive.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"matching-workers/internal/models"
)

// Archive indexes completed run diagnostics into Elasticsearch for ops
// history. Archiving is best-effort at every call site: a run whose
// diagnostics fail to index is still a successful run.
type Archive struct {
	client *elasticsearch.Client
	index  string
}

// NewArchive builds an archive writer targeting the given index.
func NewArchive(client *elasticsearch.Client, index string) *Archive {
	return &Archive{client: client, index: index}
}

// Index stores one run's diagnostics document keyed by run id, so a retried
// archive overwrites rather than duplicates.
func (a *Archive) Index(ctx context.Context, diag models.RunDiagnostics) error {
	if diag.RunID == "" {
		return fmt.Errorf("archive requires a run id")
	}

	doc, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics for run %s: %w", diag.RunID, err)
	}

	res, err := a.client.Index(
		a.index,
		bytes.NewReader(doc),
		a.client.Index.WithDocumentID(diag.RunID),
		a.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index diagnostics for run %s: %w", diag.RunID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index diagnostics for run %s: %s", diag.RunID, res.Status())
	}
	return nil
}
