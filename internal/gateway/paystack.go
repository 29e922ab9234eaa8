package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/johnkennedyb/apparcus/internal/config"
	"github.com/johnkennedyb/apparcus/internal/logger"
)

// ErrGatewayUnavailable 网关暂时不可用（网络错误、非2xx响应）。
// 这是可重试错误，绝不能当作支付失败的定论。
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Client Paystack 支付网关客户端
type Client struct {
	config     config.PaystackConfig
	httpClient *http.Client
}

// New 创建支付网关客户端
func New(cfg config.PaystackConfig) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("paystack secret key is not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// InitializeRequest 支付初始化请求
type InitializeRequest struct {
	Email       string                 `json:"email"`
	Amount      int64                  `json:"amount"` // kobo
	Currency    string                 `json:"currency"`
	Reference   string                 `json:"reference"`
	CallbackURL string                 `json:"callback_url"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// InitializeResult 支付初始化结果
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyReport 网关核实结果，是对账引擎唯一信任的输入
type VerifyReport struct {
	Reference string `json:"reference"`
	Status    string `json:"status"` // success, failed, abandoned, ...
	Amount    int64  `json:"amount"` // kobo
	Currency  string `json:"currency"`
	PaidAt    string `json:"paid_at"`
	Channel   string `json:"channel"`
}

// Succeeded 判断网关是否明确报告成功。
// 缺失或任何非 success 取值都视为不成功，绝不默认成功。
func (r *VerifyReport) Succeeded() bool {
	return r != nil && r.Status == "success"
}

// paystackEnvelope Paystack 标准响应外壳
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize 调用网关创建一笔待支付交易
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if req.Currency == "" {
		req.Currency = c.config.Currency
	}
	if req.CallbackURL == "" {
		req.CallbackURL = c.config.CallbackURL
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode initialize request: %w", err)
	}

	data, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var result InitializeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid initialize response: %v", ErrGatewayUnavailable, err)
	}

	logger.Info("Paystack payment initialized: %s", result.Reference)
	return &result, nil
}

// Verify 向网关核实一笔支付的最终状态
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyReport, error) {
	data, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return nil, err
	}

	var report VerifyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: invalid verify response: %v", ErrGatewayUnavailable, err)
	}

	logger.Info("Paystack verification result: reference=%s status=%s amount=%d", report.Reference, report.Status, report.Amount)
	return &report, nil
}

// ValidateSignature 校验 webhook 签名（HMAC-SHA512，密钥为 secret key）
func (c *Client) ValidateSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.config.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		return nil, fmt.Errorf("%w: status=%d message=%s", ErrGatewayUnavailable, resp.StatusCode, envelope.Message)
	}

	return envelope.Data, nil
}
