// Package backend talks to the upstream generation service. The
// gateway forwards sanitized requests here and treats every transport
// or upstream failure as a forwarding failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/config"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/models"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/services"
	"go.uber.org/zap"
)

// GenerateResult is the upstream service's reply to a generation call.
type GenerateResult struct {
	Content    string            `json:"content"`
	Confidence float64           `json:"confidence"`
	Model      string            `json:"model"`
	Usage      models.TokenUsage `json:"usage"`
	Cached     bool              `json:"cached"`
}

// Generator produces writing-assistance content for a sanitized request.
type Generator interface {
	Generate(ctx context.Context, req *models.SecureRequest) (*GenerateResult, error)
}

// HTTPGenerator is the HTTP adapter for the upstream generation service.
type HTTPGenerator struct {
	baseURL    string
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPGenerator creates a generator backed by the configured
// upstream service.
func NewHTTPGenerator(cfg config.BackendConfig, logger *zap.Logger) *HTTPGenerator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPGenerator{
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type generateRequest struct {
	RequestID    string              `json:"request_id"`
	CallerID     string              `json:"caller_id"`
	TargetModule string              `json:"target_module"`
	Content      string              `json:"content"`
	Profile      *models.ProfileData `json:"profile,omitempty"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

// Generate forwards the request to the upstream service. Timeouts,
// transport errors, and non-2xx statuses all surface as forwarding
// failures so the caller gets a uniform error.
func (g *HTTPGenerator) Generate(ctx context.Context, req *models.SecureRequest) (*GenerateResult, error) {
	payload := generateRequest{
		RequestID:    req.ID.String(),
		CallerID:     req.CallerID,
		TargetModule: req.TargetModule,
		Content:      req.Content,
		Profile:      req.AuxiliaryData,
		Metadata:     req.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, services.NewSecurityError(services.KindForwardingFailure, "failed to encode backend request", err)
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, services.NewSecurityError(services.KindForwardingFailure, "backend request cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/generate", bytes.NewReader(body))
		if reqErr != nil {
			return nil, services.NewSecurityError(services.KindForwardingFailure, "failed to build backend request", reqErr)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-Request-ID", req.ID.String())

		resp, lastErr = g.httpClient.Do(httpReq)
		if lastErr == nil && resp.StatusCode < 500 {
			break
		}
		// Keep the last response so its status can be reported.
		if resp != nil && attempt < g.maxRetries {
			resp.Body.Close()
			resp = nil
		}
	}

	if lastErr != nil {
		g.logger.Error("backend request failed",
			zap.String("request_id", req.ID.String()),
			zap.Error(lastErr))
		return nil, services.NewSecurityError(services.KindForwardingFailure, "backend service unreachable", lastErr)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, services.NewSecurityError(services.KindForwardingFailure, "failed to read backend response", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Error("backend returned error status",
			zap.String("request_id", req.ID.String()),
			zap.Int("status", resp.StatusCode))
		return nil, services.NewSecurityError(services.KindForwardingFailure,
			fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	var result GenerateResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, services.NewSecurityError(services.KindForwardingFailure, "failed to decode backend response", err)
	}

	return &result, nil
}
