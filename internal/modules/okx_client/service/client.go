package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"swap_engine/internal/errs"
	"swap_engine/internal/exchange"
	"swap_engine/internal/modules/config"
	"swap_engine/pkg/tracing"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const tsLayout = "2006-01-02T15:04:05.000Z"

// Client — REST-клиент OKX v5. Реализует exchange.Client.
type Client struct {
	log *zap.Logger

	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	apiKey    string
	apiSecret string
	passph    string
	simulated bool

	now func() time.Time
}

func NewClient(cfg *config.Config, log *zap.Logger) *Client {
	rps := cfg.OKX.RateLimitRPS
	if rps <= 0 {
		rps = 8
	}
	burst := cfg.OKX.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		log:       log.Named("okx"),
		http:      &http.Client{Timeout: cfg.OKX.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		baseURL:   strings.TrimRight(cfg.OKX.BaseURL, "/"),
		apiKey:    cfg.OKX.APIKey,
		apiSecret: cfg.OKX.APISecret,
		passph:    cfg.OKX.Passphrase,
		simulated: cfg.OKX.Simulated,
		now:       time.Now,
	}
}

func (c *Client) sign(ts, method, requestPath, body string) string {
	h := hmac.New(sha256.New, []byte(c.apiSecret))
	h.Write([]byte(ts + strings.ToUpper(method) + requestPath + body))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// envelope — общий конверт ответа OKX.
type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// itemStatus — поштучный статус в ответах trade/account.
type itemStatus struct {
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

// call выполняет запрос и разбирает data. private=true — подписанный запрос.
func call[T any](
	ctx context.Context,
	c *Client,
	op, method, path string,
	query url.Values,
	body any,
	private bool,
) (out []T, err error) {
	span, ctx := tracing.StartSpan(ctx, "okx", op)
	defer func() { tracing.Finish(span, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Connection(op, err)
	}

	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = sonic.Marshal(body)
		if err != nil {
			return nil, errs.Validation(op, "marshal body: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errs.Validation(op, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	if private {
		ts := c.now().UTC().Format(tsLayout)
		req.Header.Set("OK-ACCESS-KEY", c.apiKey)
		req.Header.Set("OK-ACCESS-SIGN", c.sign(ts, method, requestPath, string(payload)))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Connection(op, err)
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Connection(op, err)
	}
	span.SetTag("http.status_code", resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.Rejection(op, "50011", "too many requests")
	case resp.StatusCode >= 500:
		return nil, errs.Connection(op, errors.Errorf("http %d: %s", resp.StatusCode, string(rb)))
	}

	var env envelope[T]
	if uerr := sonic.Unmarshal(rb, &env); uerr != nil {
		if resp.StatusCode/100 != 2 {
			return nil, errs.Rejection(op, strconv.Itoa(resp.StatusCode), string(rb))
		}
		return nil, errs.Validation(op, "decode response: %v", uerr)
	}

	if env.Code != "0" {
		code, msg := env.Code, env.Msg
		// у торговых ручек настоящая причина лежит в data[].sCode
		var items []itemStatus
		if raw, e := sonic.Marshal(env.Data); e == nil {
			_ = sonic.Unmarshal(raw, &items)
		}
		for _, it := range items {
			if it.SCode != "" && it.SCode != "0" {
				code, msg = it.SCode, it.SMsg
				break
			}
		}
		c.log.Warn("[OKX] rejected",
			zap.String("op", op),
			zap.String("code", code),
			zap.String("msg", msg),
		)
		return nil, errs.Rejection(op, code, msg)
	}

	return env.Data, nil
}

// num — OKX отдаёт числа строками; пустая строка = 0.
func num(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func msTime(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ exchange.Client = (*Client)(nil)
