package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"emulator-service/pkg/tabular"
)

// DatasetsAPI groups the dataset routes.
type DatasetsAPI struct {
	client *Client
}

// Upload creates or replaces the named dataset with the table's rows.
func (a *DatasetsAPI) Upload(ctx context.Context, name string, table *tabular.Table) (*Dataset, error) {
	if table == nil {
		return nil, fmt.Errorf("upload dataset %q: nil table", name)
	}
	data, err := table.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode dataset %q: %w", name, err)
	}

	var out Dataset
	err = a.client.do(ctx, http.MethodPut, "/api/v1/datasets/"+url.PathEscape(name),
		nil, "text/csv", bytes.NewReader(data), &out)
	if err != nil {
		return nil, err
	}

	a.client.invalidate(datasetSummaryKey(name), datasetViewKey(name))
	return &out, nil
}

func (a *DatasetsAPI) Get(ctx context.Context, name string) (*Dataset, error) {
	var out Dataset
	err := a.client.do(ctx, http.MethodGet, "/api/v1/datasets/"+url.PathEscape(name),
		nil, "", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *DatasetsAPI) List(ctx context.Context, opts ListOptions) (*DatasetPage, error) {
	query := url.Values{}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	var out DatasetPage
	if err := a.client.do(ctx, http.MethodGet, "/api/v1/datasets", query, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarise fetches per-column descriptive statistics.
func (a *DatasetsAPI) Summarise(ctx context.Context, name string) (*DatasetSummary, error) {
	data, err := a.client.cachedGet(ctx, datasetSummaryKey(name),
		"/api/v1/datasets/"+url.PathEscape(name)+"/summary")
	if err != nil {
		return nil, err
	}

	var out DatasetSummary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode dataset summary: %w", err)
	}
	return &out, nil
}

// View downloads the stored rows as a table.
func (a *DatasetsAPI) View(ctx context.Context, name string) (*tabular.Table, error) {
	data, err := a.client.cachedGet(ctx, datasetViewKey(name),
		"/api/v1/datasets/"+url.PathEscape(name)+"/data")
	if err != nil {
		return nil, err
	}

	table, err := tabular.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode dataset %q: %w", name, err)
	}
	return table, nil
}

func (a *DatasetsAPI) Delete(ctx context.Context, name string) error {
	err := a.client.do(ctx, http.MethodDelete, "/api/v1/datasets/"+url.PathEscape(name),
		nil, "", nil, nil)
	if err != nil {
		return err
	}

	a.client.invalidate(datasetSummaryKey(name), datasetViewKey(name))
	return nil
}

func datasetSummaryKey(name string) string { return "dataset-summary/" + name }
func datasetViewKey(name string) string    { return "dataset-view/" + name }
