package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/http"
)

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Printf("🔄 [RETRY ERROR] %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings, not all info
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	// Only log errors and warnings
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Printf("⚠️  [RETRY WARN] %s %v", msg, keysAndValues)
}

// Client talks to the host agent's /fs API.
//
// JSON calls go through a retry-wrapped client; Upload, DownloadRaw and
// DownloadArchive use a separate streaming client with no overall timeout,
// because a body cannot be replayed mid-transfer and large files would
// trip any per-request deadline.
type Client struct {
	httpClient   *nethttp.Client // retry-wrapped, JSON endpoints
	streamClient *nethttp.Client // no timeout, transfer bodies
	config       *config.Config
	baseURL      string
	apiKey       string
}

// NewClient creates an agent client from the configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.AgentURL) == "" {
		return nil, fmt.Errorf("agent URL is empty (check configuration or set REMEX_AGENT_URL)")
	}

	// Configure HTTP client with proxy support
	httpClient, err := http.ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	// Wrap with retry logic
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = constants.MaxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{} // Enable error/warning logging

	streamClient, err := http.CreateStreamingClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure streaming client: %w", err)
	}

	return &Client{
		httpClient:   retryClient.StandardClient(),
		streamClient: streamClient,
		config:       cfg,
		baseURL:      strings.TrimSuffix(cfg.AgentURL, "/"),
		apiKey:       cfg.APIKey,
	}, nil
}

// GetConfig returns the configuration used by this client.
// Transfer modules need it to configure their own HTTP clients with proxy settings.
func (c *Client) GetConfig() *config.Config {
	return c.config
}

// BaseURL returns the agent base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs a JSON request with authentication against the agent.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := nethttp.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Log detailed error information
		log.Printf("❌ Agent call failed: %s %s - Error: %v", method, path, err)
		if strings.Contains(err.Error(), "timeout") {
			log.Printf("   └─ Timeout error (agent unreachable or network issue)")
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func (c *Client) setHeaders(req *nethttp.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// checkStatus converts a non-2xx response into an *APIError.
func checkStatus(method, path string, resp *nethttp.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// decodeEntries parses a listing response. The agent answers with a JSON
// array; anything else (an HTML error page from a middlebox, an object)
// degrades to an empty listing instead of an error.
func decodeEntries(r io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing response: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Entry{}, nil
	}

	var entries []Entry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// List returns the contents of a remote directory.
func (c *Client) List(ctx context.Context, path string) ([]Entry, error) {
	query := url.Values{"path": {path}}

	resp, err := c.doRequest(ctx, "GET", "/fs", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("GET", "/fs", resp); err != nil {
		return nil, err
	}

	return decodeEntries(resp.Body)
}

// Drives returns the agent host's drive roots.
func (c *Client) Drives(ctx context.Context) ([]Entry, error) {
	resp, err := c.doRequest(ctx, "GET", "/fs/drives", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("GET", "/fs/drives", resp); err != nil {
		return nil, err
	}

	return decodeEntries(resp.Body)
}

// ReadFile fetches a remote text file's content in full.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	query := url.Values{"path": {path}}

	resp, err := c.doRequest(ctx, "GET", "/fs/content", query, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus("GET", "/fs/content", resp); err != nil {
		return "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read content response: %w", err)
	}

	return string(data), nil
}

// WriteFile replaces a remote file's content, creating the file if needed.
func (c *Client) WriteFile(ctx context.Context, path, content string) error {
	requestBody := map[string]string{
		"path":    path,
		"content": content,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/write", nil, requestBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/write", resp)
}

// Mkdir creates a directory named name under parent.
func (c *Client) Mkdir(ctx context.Context, parent, name string) error {
	requestBody := map[string]string{
		"path": parent,
		"name": name,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/directory", nil, requestBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/directory", resp)
}

// Rename gives the file or directory at path a new leaf name.
func (c *Client) Rename(ctx context.Context, path, newName string) error {
	requestBody := map[string]string{
		"path":    path,
		"newName": newName,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/rename", nil, requestBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/rename", resp)
}

// Delete removes a single file or directory (recursive on the agent side).
func (c *Client) Delete(ctx context.Context, path string) error {
	query := url.Values{"path": {path}}

	resp, err := c.doRequest(ctx, "DELETE", "/fs", query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("DELETE", "/fs", resp)
}

// BulkDelete removes many paths in one request. Per-item failures come back
// in the outcome, not as an error.
func (c *Client) BulkDelete(ctx context.Context, paths []string) (*BulkOutcome, error) {
	requestBody := map[string]interface{}{
		"paths": paths,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/bulk/delete", nil, requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("POST", "/fs/bulk/delete", resp); err != nil {
		return nil, err
	}

	return decodeOutcome(resp.Body, len(paths))
}

// BulkCopy copies sources into the destination directory.
func (c *Client) BulkCopy(ctx context.Context, sources []string, dest string) (*BulkOutcome, error) {
	return c.bulkTransfer(ctx, "/fs/bulk/copy", sources, dest)
}

// BulkMove moves sources into the destination directory.
func (c *Client) BulkMove(ctx context.Context, sources []string, dest string) (*BulkOutcome, error) {
	return c.bulkTransfer(ctx, "/fs/bulk/move", sources, dest)
}

func (c *Client) bulkTransfer(ctx context.Context, path string, sources []string, dest string) (*BulkOutcome, error) {
	requestBody := map[string]interface{}{
		"sources":     sources,
		"destination": dest,
	}

	resp, err := c.doRequest(ctx, "POST", path, nil, requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus("POST", path, resp); err != nil {
		return nil, err
	}

	return decodeOutcome(resp.Body, len(sources))
}

// decodeOutcome parses a bulk tally. Agents older than the tally format
// answer with an empty body; treat that as all requested items succeeding.
func decodeOutcome(r io.Reader, requested int) (*BulkOutcome, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk response: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &BulkOutcome{Requested: requested, Succeeded: requested}, nil
	}

	var outcome BulkOutcome
	if err := json.Unmarshal(trimmed, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if outcome.Requested == 0 {
		outcome.Requested = requested
	}
	return &outcome, nil
}

// Zip asks the agent to build a zip archive at zipPath from the sources.
func (c *Client) Zip(ctx context.Context, sources []string, zipPath string) error {
	requestBody := map[string]interface{}{
		"sources": sources,
		"zipPath": zipPath,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/bulk/zip", nil, requestBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/bulk/zip", resp)
}

// Unzip extracts a remote archive into the destination directory.
func (c *Client) Unzip(ctx context.Context, zipPath, dest string) error {
	requestBody := map[string]string{
		"zipPath":     zipPath,
		"destination": dest,
	}

	resp, err := c.doRequest(ctx, "POST", "/fs/unzip", nil, requestBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/unzip", resp)
}

// DownloadArchive streams an ad-hoc zip of the given paths into w and
// returns the number of body bytes written. The agent zips on the fly, so
// there is no Content-Length to check against.
func (c *Client) DownloadArchive(ctx context.Context, paths []string, w io.Writer) (int64, error) {
	jsonData, err := json.Marshal(map[string]interface{}{"paths": paths})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, "POST", c.baseURL+"/fs/download/bulk", bytes.NewReader(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("POST", "/fs/download/bulk", resp); err != nil {
		return 0, err
	}

	return io.CopyBuffer(w, resp.Body, make([]byte, constants.CopyBufferSize))
}

// DownloadRaw streams a single remote file into w and returns the number of
// bytes written.
func (c *Client) DownloadRaw(ctx context.Context, path string, w io.Writer) (int64, error) {
	req, err := nethttp.NewRequestWithContext(ctx, "GET", c.RawURL(path), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("GET", "/fs/raw", resp); err != nil {
		return 0, err
	}

	return io.CopyBuffer(w, resp.Body, make([]byte, constants.CopyBufferSize))
}

// RawURL returns the direct URL for a remote file, suitable for previews.
func (c *Client) RawURL(path string) string {
	return c.baseURL + "/fs/raw?path=" + url.QueryEscape(path)
}

// progressReader invokes fn with the byte count of every successful read.
type progressReader struct {
	r  io.Reader
	fn func(n int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.fn(int64(n))
	}
	return n, err
}

// Upload streams one file into destDir as a multipart POST. The path field
// precedes the file part so the agent knows the destination before it sees
// the body. No automatic retry: the body cannot be replayed mid-stream, so
// callers restart the whole upload instead.
func (c *Client) Upload(ctx context.Context, destDir, name string, r io.Reader, progress func(n int64)) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		if err := mw.WriteField("path", destDir); err != nil {
			pw.CloseWithError(err)
			return
		}
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := r
		if progress != nil {
			src = &progressReader{r: r, fn: progress}
		}
		if _, err := io.CopyBuffer(part, src, make([]byte, constants.CopyBufferSize)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := nethttp.NewRequestWithContext(ctx, "POST", c.baseURL+"/fs/upload", pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		log.Printf("❌ Upload failed: %s -> %s - Error: %v", name, destDir, err)
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	return checkStatus("POST", "/fs/upload", resp)
}
