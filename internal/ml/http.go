package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/wealthdesk/stmtparse/internal/common"
	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/model"
)

// HTTPClassifier calls a model inference service over HTTP with a bounded
// timeout. It is safe for concurrent use.
type HTTPClassifier struct {
	client    *http.Client
	logger    *slog.Logger
	endpoint  string
	retryOpts common.RetryOptions
}

// NewHTTPClassifier creates a classifier client for the configured endpoint.
func NewHTTPClassifier(cfg config.Classifier, logger *slog.Logger) (*HTTPClassifier, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: classifier endpoint is empty", common.ErrMissingConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClassifier{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
		retryOpts: common.RetryOptions{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: 25 * time.Millisecond,
			MaxDelay:     cfg.Timeout,
			Multiplier:   2.0,
		},
	}, nil
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Labels []struct {
		Category string  `json:"category"`
		Type     string  `json:"type"`
		Weight   float64 `json:"weight"`
	} `json:"labels"`
	Identifiers  map[string][]string `json:"identifiers,omitempty"`
	FromDate     string              `json:"from_date,omitempty"`
	ToDate       string              `json:"to_date,omitempty"`
	Confidence   float64             `json:"confidence"`
	ModelVersion string              `json:"model_version,omitempty"`
}

// Predict sends the normalized text to the inference service. Transport
// failures and 5xx responses are retried; the caller's context bounds the
// total time. Errors are reported as ErrClassifierUnavailable or
// ErrClassifierTimeout so the orchestrator can degrade gracefully.
func (c *HTTPClassifier) Predict(ctx context.Context, text model.NormalizedText) (*Prediction, error) {
	payload, err := json.Marshal(predictRequest{Text: text.String()})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", common.ErrClassifierUnavailable, err)
	}

	var pred *Prediction

	err = common.WithRetry(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return &common.RetryableError{Err: reqErr, Retryable: false}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			c.logger.Warn("classifier request failed", "error", doErr)
			return &common.RetryableError{Err: doErr, Retryable: true}
		}
		defer func() { _ = resp.Body.Close() }()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &common.RetryableError{Err: readErr, Retryable: true}
		}

		if resp.StatusCode >= 500 {
			return &common.RetryableError{
				Err:       fmt.Errorf("inference service returned %d", resp.StatusCode),
				Retryable: true,
			}
		}
		if resp.StatusCode != http.StatusOK {
			return &common.RetryableError{
				Err:       fmt.Errorf("inference service returned %d", resp.StatusCode),
				Retryable: false,
			}
		}

		var wire predictResponse
		if decErr := json.Unmarshal(body, &wire); decErr != nil {
			return &common.RetryableError{Err: decErr, Retryable: false}
		}

		p, convErr := wire.toPrediction()
		if convErr != nil {
			return &common.RetryableError{Err: convErr, Retryable: false}
		}
		pred = p
		return nil
	}, c.retryOpts)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", common.ErrClassifierTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrClassifierUnavailable, err)
	}

	return pred, nil
}

func (r *predictResponse) toPrediction() (*Prediction, error) {
	p := &Prediction{
		Confidence:   r.Confidence,
		ModelVersion: r.ModelVersion,
		Identifiers:  r.Identifiers,
	}
	for _, l := range r.Labels {
		p.Labels = append(p.Labels, Label{Category: l.Category, Type: l.Type, Weight: l.Weight})
	}
	if r.FromDate != "" && r.ToDate != "" {
		from, err := time.Parse("2006-01-02", r.FromDate)
		if err != nil {
			return nil, fmt.Errorf("parsing from_date: %w", err)
		}
		to, err := time.Parse("2006-01-02", r.ToDate)
		if err != nil {
			return nil, fmt.Errorf("parsing to_date: %w", err)
		}
		p.FromDate, p.ToDate = &from, &to
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
