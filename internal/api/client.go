package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "SILVERRAIL_HTTP_TIMEOUT"
	apiTokenEnvKey     = "SILVERRAIL_API_TOKEN"
)

// Client is a simple HTTP client for the silverrail API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListCharacters(ctx context.Context, query url.Values) ([]CharacterResponse, error) {
	var resp []CharacterResponse
	err := c.do(ctx, http.MethodGet, "/v1/characters", query, nil, &resp)
	return resp, err
}

func (c *Client) GetCharacter(ctx context.Context, id int64) (CharacterResponse, error) {
	var resp CharacterResponse
	err := c.do(ctx, http.MethodGet, resourcePath("characters", id), nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateCharacter(ctx context.Context, req CharacterCreateRequest) (CharacterResponse, error) {
	var resp CharacterResponse
	err := c.do(ctx, http.MethodPost, "/v1/characters", nil, req, &resp)
	return resp, err
}

func (c *Client) CreateAbility(ctx context.Context, req AbilityCreateRequest) (AbilityResponse, error) {
	var resp AbilityResponse
	err := c.do(ctx, http.MethodPost, "/v1/abilities", nil, req, &resp)
	return resp, err
}

func (c *Client) ListAbilities(ctx context.Context, query url.Values) ([]AbilityResponse, error) {
	var resp []AbilityResponse
	err := c.do(ctx, http.MethodGet, "/v1/abilities", query, nil, &resp)
	return resp, err
}

func (c *Client) ListLightcones(ctx context.Context, query url.Values) ([]LightconeResponse, error) {
	var resp []LightconeResponse
	err := c.do(ctx, http.MethodGet, "/v1/lightcones", query, nil, &resp)
	return resp, err
}

func (c *Client) CreateLightcone(ctx context.Context, req LightconeCreateRequest) (LightconeResponse, error) {
	var resp LightconeResponse
	err := c.do(ctx, http.MethodPost, "/v1/lightcones", nil, req, &resp)
	return resp, err
}

func (c *Client) ListRelics(ctx context.Context, query url.Values) ([]RelicResponse, error) {
	var resp []RelicResponse
	err := c.do(ctx, http.MethodGet, "/v1/relics", query, nil, &resp)
	return resp, err
}

func (c *Client) CreateRelic(ctx context.Context, req RelicCreateRequest) (RelicResponse, error) {
	var resp RelicResponse
	err := c.do(ctx, http.MethodPost, "/v1/relics", nil, req, &resp)
	return resp, err
}

// Delete removes one record of resource, e.g. "characters".
func (c *Client) Delete(ctx context.Context, resource string, id int64) error {
	return c.do(ctx, http.MethodDelete, resourcePath(resource, id), nil, nil, nil)
}

// Get decodes one record of resource into out.
func (c *Client) Get(ctx context.Context, resource string, id int64, out any) error {
	return c.do(ctx, http.MethodGet, resourcePath(resource, id), nil, nil, out)
}

// UploadFile sends content as the multipart file of record resource/id.
// field is the upload route suffix, e.g. "image" or "set_icon".
func (c *Client) UploadFile(ctx context.Context, resource string, id int64, field, filename string, content io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	endpoint := c.baseURL + resourcePath(resource, id) + "/" + url.PathEscape(field)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) Rehash(ctx context.Context) (RehashResponse, error) {
	var resp RehashResponse
	err := c.do(ctx, http.MethodPost, "/v1/admin/files/rehash", nil, nil, &resp)
	return resp, err
}

func (c *Client) CleanupSessions(ctx context.Context, req CleanupSessionsRequest, confirm bool) (CleanupSessionsResponse, error) {
	var resp CleanupSessionsResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/admin/sessions/cleanup", bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if confirm {
		httpReq.Header.Set("X-Confirm", "true")
	}
	err = c.send(httpReq, &resp)
	return resp, err
}

func (c *Client) AdminUserAdd(ctx context.Context, req AdminCreateUserRequest) (AdminUser, error) {
	var resp AdminUser
	err := c.do(ctx, http.MethodPost, "/v1/admin/users", nil, req, &resp)
	return resp, err
}

func (c *Client) AdminUserList(ctx context.Context) ([]AdminUser, error) {
	var resp []AdminUser
	err := c.do(ctx, http.MethodGet, "/v1/admin/users", nil, nil, &resp)
	return resp, err
}

func (c *Client) AdminUserSetDisabled(ctx context.Context, username string, disabled bool) (AdminUser, error) {
	var resp AdminUser
	err := c.do(ctx, http.MethodPatch, "/v1/admin/users/"+url.PathEscape(username), nil, AdminSetUserDisabledRequest{Disabled: disabled}, &resp)
	return resp, err
}

func (c *Client) AdminUserDelete(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/v1/admin/users/"+url.PathEscape(username), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func resourcePath(resource string, id int64) string {
	return "/v1/" + url.PathEscape(resource) + "/" + strconv.FormatInt(id, 10)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		apiErr.Code = errResp.Code
		apiErr.ErrorCode = errResp.ErrorCode
		apiErr.Message = errResp.Error
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
	return apiErr
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
