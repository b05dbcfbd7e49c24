package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"reviewant/internal/config"
	"reviewant/internal/constants"
	"reviewant/internal/domain"
	"reviewant/internal/metrics"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

type HDevClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	limiter *rate.Limiter
	metrics *metrics.Recorder

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewHDevClient(cfg *config.Config, rec *metrics.Recorder) *HDevClient {
	perMinute := cfg.APIRatePerMinute
	return &HDevClient{
		apiKey:  cfg.HDevAPIKey,
		baseURL: strings.TrimRight(cfg.HDevBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), constants.APIRateBurst),
		metrics: rec,
		rateLimit: RateLimitInfo{
			Limit:     perMinute,
			Remaining: perMinute,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *HDevClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *HDevClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-Ratelimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetMatches returns the recent match history of an identity.
func (c *HDevClient) GetMatches(ctx context.Context, region string, id domain.Identity) (*V3MatchesResponse, error) {
	u := fmt.Sprintf("%s/valorant/v3/matches/%s/%s/%s",
		c.baseURL, url.PathEscape(region), url.PathEscape(id.Name), url.PathEscape(id.Tag))
	return doRequest[V3MatchesResponse](ctx, c, "matches", u)
}

// validator is implemented by responses that can reject a decodable but
// structurally unusable payload.
type validator interface {
	Validate() error
}

func doRequest[T any](ctx context.Context, client *HDevClient, endpoint, url string) (*T, error) {
	start := time.Now()
	result, err := do[T](ctx, client, url)
	client.metrics.ObserveUpstream(endpoint, outcome(err), time.Since(start))
	return result, err
}

func do[T any](ctx context.Context, client *HDevClient, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", client.apiKey)
	req.Header.SetContentType("application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
	} else {
		if err := client.client.DoTimeout(req, resp, constants.ExternalAPITimeout); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: upstream returned 404", domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("%w: API error: %d", domain.ErrUpstream, resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", domain.ErrUpstream, err)
	}
	if v, ok := any(&result).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
	}
	return &result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
