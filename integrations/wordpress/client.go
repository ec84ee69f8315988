package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
)

const (
	httpTimeout       = 30 * time.Second
	maxRetries        = 3
	retryBaseInterval = 500 * time.Millisecond
)

var httpClient = &http.Client{Timeout: httpTimeout}

// Client publishes posts to one WordPress site over the REST API using an
// application password. Transient failures (5xx, network) are retried with
// exponential backoff before surfacing; 401/403 surface immediately as
// credential errors.
type Client struct {
	baseURL  string
	username string
	password string
}

// NewClient builds a publishing adapter bound to one target's credentials.
func NewClient(target clientsDomain.PublishingTarget) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(target.SiteURL, "/"),
		username: target.Username,
		password: target.AppPassword,
	}
}

type postPayload struct {
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content,omitempty"`
	Status  string  `json:"status,omitempty"`
	Tags    []int64 `json:"tags,omitempty"`
	Date    string  `json:"date_gmt,omitempty"`
}

type postResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// Publish creates a post on the remote site.
func (c *Client) Publish(ctx context.Context, params schedDomain.PublishParams) (*schedDomain.RemotePost, error) {
	payload := postPayload{
		Title:   params.Title,
		Content: params.Body,
		Status:  params.Status,
		Tags:    c.resolveTags(ctx, params.Tags),
	}
	return c.submit(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/posts", payload)
}

// Update modifies an existing remote post.
func (c *Client) Update(ctx context.Context, remoteID int64, params schedDomain.UpdateParams) (*schedDomain.RemotePost, error) {
	payload := postPayload{
		Title:   params.Title,
		Content: params.Body,
		Status:  params.Status,
		Tags:    c.resolveTags(ctx, params.Tags),
	}
	if params.Date != nil {
		payload.Date = params.Date.UTC().Format("2006-01-02T15:04:05")
	}
	return c.submit(ctx, http.MethodPost, fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, remoteID), payload)
}

// submit sends one payload, retrying transient failures.
func (c *Client) submit(ctx context.Context, method, endpoint string, payload postPayload) (*schedDomain.RemotePost, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal post payload: %w", err)
	}

	var result postResponse
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(retryBaseInterval))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.SetBasicAuth(c.username, c.password)
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := httpClient.Do(req)
		if doErr != nil {
			// Network-level failures are worth retrying.
			return retry.RetryableError(doErr)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if decodeErr := json.Unmarshal(respBody, &result); decodeErr != nil {
				return fmt.Errorf("decode wordpress response: %w", decodeErr)
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &schedDomain.CredentialError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("wordpress rejected credentials (%d): %s", resp.StatusCode, wpErrorMessage(respBody)),
			}
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("wordpress server error (%d): %s", resp.StatusCode, wpErrorMessage(respBody)))
		default:
			return fmt.Errorf("wordpress request failed (%d): %s", resp.StatusCode, wpErrorMessage(respBody))
		}
	})
	if err != nil {
		return nil, err
	}

	return &schedDomain.RemotePost{ID: result.ID, URL: result.Link}, nil
}

type tagResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// resolveTags maps tag names to WordPress term ids, creating missing tags.
// Tag resolution is best-effort: a failure drops the tag, never the post.
func (c *Client) resolveTags(ctx context.Context, names []string) []int64 {
	var ids []int64
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := c.findOrCreateTag(ctx, name)
		if err != nil {
			logrus.WithError(err).Warnf("[WORDPRESS] Failed to resolve tag %q, skipping", name)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Client) findOrCreateTag(ctx context.Context, name string) (int64, error) {
	searchURL := fmt.Sprintf("%s/wp-json/wp/v2/tags?search=%s", c.baseURL, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, err
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var tags []tagResponse
		if err := json.NewDecoder(resp.Body).Decode(&tags); err == nil {
			for _, tag := range tags {
				if strings.EqualFold(tag.Name, name) {
					return tag.ID, nil
				}
			}
		}
	}

	// Not found: create it.
	payload, _ := json.Marshal(map[string]string{"name": name})
	createReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wp-json/wp/v2/tags", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	createReq.SetBasicAuth(c.username, c.password)
	createReq.Header.Set("Content-Type", "application/json")

	createResp, err := httpClient.Do(createReq)
	if err != nil {
		return 0, err
	}
	defer createResp.Body.Close()

	if createResp.StatusCode < 200 || createResp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(createResp.Body, 4096))
		return 0, fmt.Errorf("create tag %q failed (%d): %s", name, createResp.StatusCode, wpErrorMessage(body))
	}

	var created tagResponse
	if err := json.NewDecoder(createResp.Body).Decode(&created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// wpErrorMessage extracts the human message from a WordPress error body.
func wpErrorMessage(body []byte) string {
	var wpErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wpErr); err == nil && wpErr.Message != "" {
		if wpErr.Code != "" {
			return fmt.Sprintf("%s: %s", wpErr.Code, wpErr.Message)
		}
		return wpErr.Message
	}
	trimmed := strings.TrimSpace(string(body))
	if len(trimmed) > 200 {
		trimmed = trimmed[:200]
	}
	return trimmed
}
