package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"emulator-service/pkg/tabular"
)

// EmulatorsAPI groups the emulator routes.
type EmulatorsAPI struct {
	client *Client
}

// Train submits a training job. The returned emulator is PENDING; follow up
// with Status or WaitUntilTrained for the outcome.
func (a *EmulatorsAPI) Train(ctx context.Context, spec TrainSpec) (*Emulator, error) {
	body, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("encode train request: %w", err)
	}

	var out Emulator
	err = a.client.do(ctx, http.MethodPost, "/api/v1/emulators",
		nil, "application/json", bytes.NewReader(body), &out)
	if err != nil {
		return nil, err
	}

	a.client.invalidate(emulatorSummaryKey(spec.Name))
	return &out, nil
}

func (a *EmulatorsAPI) Get(ctx context.Context, name string) (*Emulator, error) {
	var out Emulator
	err := a.client.do(ctx, http.MethodGet, "/api/v1/emulators/"+url.PathEscape(name),
		nil, "", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *EmulatorsAPI) List(ctx context.Context, opts ListOptions) (*EmulatorPage, error) {
	query := url.Values{}
	if opts.Dataset != "" {
		query.Set("dataset", opts.Dataset)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	var out EmulatorPage
	if err := a.client.do(ctx, http.MethodGet, "/api/v1/emulators", query, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status reports the training state without the full emulator body.
func (a *EmulatorsAPI) Status(ctx context.Context, name string) (*EmulatorStatus, error) {
	var out EmulatorStatus
	err := a.client.do(ctx, http.MethodGet, "/api/v1/emulators/"+url.PathEscape(name)+"/status",
		nil, "", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarise fetches holdout metrics and training details. The response is
// cached until this client deletes or retrains the emulator.
func (a *EmulatorsAPI) Summarise(ctx context.Context, name string) (*EmulatorSummary, error) {
	data, err := a.client.cachedGet(ctx, emulatorSummaryKey(name),
		"/api/v1/emulators/"+url.PathEscape(name)+"/summary")
	if err != nil {
		return nil, err
	}

	var out EmulatorSummary
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode emulator summary: %w", err)
	}
	return &out, nil
}

func (a *EmulatorsAPI) Delete(ctx context.Context, name string) error {
	err := a.client.do(ctx, http.MethodDelete, "/api/v1/emulators/"+url.PathEscape(name),
		nil, "", nil, nil)
	if err != nil {
		return err
	}

	a.client.invalidate(emulatorSummaryKey(name))
	return nil
}

// WaitUntilTrained polls the emulator status with exponential backoff until
// training reaches a terminal state. It returns the trained emulator on
// READY, an error on FAILED, and keeps retrying through transient transport
// or server errors until the context is cancelled.
func (a *EmulatorsAPI) WaitUntilTrained(ctx context.Context, name string) (*Emulator, error) {
	poll := backoff.NewExponentialBackOff()
	poll.InitialInterval = 250 * time.Millisecond
	poll.MaxInterval = 5 * time.Second

	operation := func() (*Emulator, error) {
		status, err := a.Status(ctx, name)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		switch status.Status {
		case StatusReady:
			return a.Get(ctx, name)
		case StatusFailed:
			return nil, backoff.Permanent(fmt.Errorf("training %q failed: %s", name, status.Error))
		default:
			return nil, fmt.Errorf("emulator %q is still %s", name, status.Status)
		}
	}

	return backoff.Retry(ctx, operation, backoff.WithBackOff(poll), backoff.WithMaxElapsedTime(0))
}

// Predict scores the input table against a READY emulator. The inputs need
// every column the emulator was trained on; extra columns are ignored by the
// service. Both returned tables carry one row per input row in input order.
func (a *EmulatorsAPI) Predict(ctx context.Context, name string, inputs *tabular.Table) (*Prediction, error) {
	if inputs == nil || inputs.NumRows() == 0 {
		return nil, fmt.Errorf("predict with %q: empty input table", name)
	}
	data, err := inputs.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode prediction inputs: %w", err)
	}

	var out Prediction
	err = a.client.do(ctx, http.MethodPost, "/api/v1/emulators/"+url.PathEscape(name)+"/predict",
		nil, "text/csv", bytes.NewReader(data), &out)
	if err != nil {
		return nil, err
	}

	if err := checkPredictionShape(&out, inputs.NumRows()); err != nil {
		return nil, err
	}
	return &out, nil
}

// checkPredictionShape rejects responses whose mean and std tables do not
// line up with the submitted rows.
func checkPredictionShape(p *Prediction, rows int) error {
	if p.Mean == nil || p.Std == nil {
		return errors.New("prediction response missing mean or std table")
	}
	if len(p.Mean.Rows) != rows || len(p.Std.Rows) != rows {
		return fmt.Errorf("prediction rows mismatch: sent %d, got mean %d and std %d",
			rows, len(p.Mean.Rows), len(p.Std.Rows))
	}
	if !slices.Equal(p.Mean.Columns, p.Std.Columns) {
		return fmt.Errorf("prediction columns mismatch: mean %v, std %v",
			p.Mean.Columns, p.Std.Columns)
	}
	return nil
}

func emulatorSummaryKey(name string) string { return "emulator-summary/" + name }
