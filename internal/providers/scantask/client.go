// Package scantask is the client for the paid barcode-to-ASIN scan
// service. Scans are asynchronous: submitting a barcode opens a scan
// task that resolves to an ASIN some seconds later.
package scantask

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/scanbase/scanbase/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Outcome classifies how a resolution attempt ended.
type Outcome string

const (
	OutcomeResolved Outcome = "resolved"
	OutcomeFailed   Outcome = "failed"
	OutcomePending  Outcome = "pending"
)

// Task is the provider's scan task record.
type Task struct {
	ID             string `json:"id"`
	BarCode        string `json:"barCode"`
	ASIN           string `json:"asin"`
	TaskState      string `json:"taskState"`
	AssignmentDate string `json:"assignmentDate"`
}

// Resolution is the final word on one barcode submission.
type Resolution struct {
	Outcome Outcome
	ASIN    string
	TaskID  string
	State   string
	Raw     json.RawMessage
}

type envelope struct {
	Succeeded bool            `json:"succeeded"`
	Data      json.RawMessage `json:"data"`
	Messages  []string        `json:"messages"`
}

// Resolver submits barcodes and waits for an ASIN.
type Resolver interface {
	Resolve(ctx context.Context, barcode string) (*Resolution, error)
}

var Module = fx.Module("providers.scantask",
	fx.Provide(NewClient),
)

type ClientParam struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	pollAttempts int
	pollInterval time.Duration
	log          *zap.Logger
}

func NewClient(p ClientParam) Resolver {
	return &Client{
		http:         &http.Client{Timeout: p.Config.ScanTask.Timeout},
		baseURL:      p.Config.ScanTask.BaseURL,
		apiKey:       p.Config.ScanTask.APIKey,
		pollAttempts: p.Config.ScanTask.PollAttempts,
		pollInterval: p.Config.ScanTask.PollInterval,
		log:          p.Log.Named("providers.scantask"),
	}
}

// minASINLength guards against the provider echoing truncated or
// placeholder values in the asin field.
const minASINLength = 10

// Resolve runs the full workflow: look up an existing task, submit one
// if absent, then poll until the task carries an ASIN or the poll
// budget runs out. One forced re-submission happens after the second
// empty poll, the provider occasionally drops tasks on the floor.
func (c *Client) Resolve(ctx context.Context, barcode string) (*Resolution, error) {
	task, raw, err := c.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, fmt.Errorf("scantask lookup: %w", err)
	}

	if task == nil {
		task, raw, err = c.AddOrGet(ctx, barcode)
		if err != nil {
			return nil, fmt.Errorf("scantask submit: %w", err)
		}
	}

	if res := resolutionFromTask(task, raw); res != nil {
		return res, nil
	}

	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		polled, polledRaw, err := c.GetByBarcode(ctx, barcode)
		if err != nil {
			c.log.Warn("scantask.poll_failed",
				zap.String("barcode", barcode),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		if polled != nil {
			task, raw = polled, polledRaw
		}

		if res := resolutionFromTask(task, raw); res != nil {
			return res, nil
		}

		if attempt == 2 {
			if resubmitted, resubmittedRaw, err := c.AddOrGet(ctx, barcode); err != nil {
				c.log.Warn("scantask.resubmit_failed",
					zap.String("barcode", barcode),
					zap.Error(err),
				)
			} else if resubmitted != nil {
				task, raw = resubmitted, resubmittedRaw
				if res := resolutionFromTask(task, raw); res != nil {
					return res, nil
				}
			}
		}
	}

	res := &Resolution{Outcome: OutcomePending, Raw: raw}
	if task != nil {
		res.TaskID = task.ID
		res.State = task.TaskState
	}
	return res, nil
}

// GetByBarcode returns the existing scan task for the barcode, or nil
// when the provider has none.
func (c *Client) GetByBarcode(ctx context.Context, barcode string) (*Task, json.RawMessage, error) {
	endpoint := c.baseURL + "/api/v1/ScanTask/GetByBarCode?BarCode=" + url.QueryEscape(barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	return c.do(req)
}

// AddOrGet submits a new scan task. The provider deduplicates by
// barcode, so repeat submissions are safe.
func (c *Client) AddOrGet(ctx context.Context, barcode string) (*Task, json.RawMessage, error) {
	payload, err := json.Marshal(map[string]string{
		"barCode":     barcode,
		"callbackUrl": "",
	})
	if err != nil {
		return nil, nil, err
	}

	endpoint := c.baseURL + "/api/v1/ScanTask/AddOrGet"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Task, json.RawMessage, error) {
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("scantask api status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("scantask api decode: %w", err)
	}
	if !env.Succeeded || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil, nil
	}

	var task Task
	if err := json.Unmarshal(env.Data, &task); err != nil {
		return nil, nil, fmt.Errorf("scantask api decode task: %w", err)
	}
	return &task, env.Data, nil
}

// resolutionFromTask returns a terminal resolution, or nil while the
// task is still worth polling.
func resolutionFromTask(task *Task, raw json.RawMessage) *Resolution {
	if task == nil {
		return nil
	}

	if len(task.ASIN) >= minASINLength {
		return &Resolution{
			Outcome: OutcomeResolved,
			ASIN:    task.ASIN,
			TaskID:  task.ID,
			State:   task.TaskState,
			Raw:     raw,
		}
	}

	switch task.TaskState {
	case "Completed", "Failed", "NotFound":
		return &Resolution{
			Outcome: OutcomeFailed,
			TaskID:  task.ID,
			State:   task.TaskState,
			Raw:     raw,
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
