/**
 * @description
 * This package provides a client for the external risk/fraud-check service.
 * One synchronous check happens per transfer attempt, before any funds move.
 *
 * The client is deliberately fail-open: if the risk service is unreachable,
 * times out, or returns garbage, the check degrades to an allow decision with
 * level UNKNOWN so that risk-service downtime does not halt transfers. The
 * tradeoff (availability over fraud prevention) is a product decision; do not
 * silently flip it to fail-closed.
 *
 * @dependencies
 * - bytes, context, encoding/json, net/http, time: Standard Go libraries.
 * - internal/domain: Risk domain models.
 */
package riskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PovetkinRoman/bankApp-sub000/internal/domain"
)

// CheckTypeTransfer tags transfer attempts in risk check requests.
const CheckTypeTransfer = "TRANSFER"

// Client is a client for the risk check service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new risk service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Check submits one transfer attempt to the risk service and returns its
// decision. Every failure mode degrades to an unblocked decision tagged
// UNKNOWN; this method never returns an error.
func (c *Client) Check(ctx context.Context, req domain.RiskCheckRequest) domain.RiskDecision {
	payload, err := json.Marshal(req)
	if err != nil {
		return c.failOpen("check request marshal failed", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/check", bytes.NewBuffer(payload))
	if err != nil {
		return c.failOpen("check request build failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.failOpen("risk service unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failOpen("risk response read failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.failOpen(fmt.Sprintf("risk service returned status %d", resp.StatusCode), nil)
	}

	var decision domain.RiskDecision
	if err := json.Unmarshal(body, &decision); err != nil {
		return c.failOpen("risk response decode failed", err)
	}
	if decision.RiskLevel == "" {
		decision.RiskLevel = domain.RiskLevelUnknown
	}
	return decision
}

func (c *Client) failOpen(reason string, err error) domain.RiskDecision {
	log.Printf("level=warn component=risk_client msg=\"check degraded to allow\" reason=%q err=%v", reason, err)
	return domain.RiskDecision{
		Blocked:   false,
		Reason:    reason,
		RiskLevel: domain.RiskLevelUnknown,
	}
}
