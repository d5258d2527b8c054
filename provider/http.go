package provider

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
)

// UserAgent is sent to providers that reject unknown clients.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// diskCache is a RoundTripper caching successful responses on disk. Entries
// are keyed by day, so they expire every day.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date
}

func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	key, err := c.key(req)
	if err != nil {
		return nil, err
	}
	if resp, err := c.get(key, req); err == nil {
		logger.L.Debug("http cache hit", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path)
		return resp, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("http request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path, "status", resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		logger.L.Warn("http cache write failed (ignored)", "error", err)
	}
	return resp, nil
}

// key hashes the day, the request line and the request body if any.
func (c *diskCache) key(req *http.Request) (string, error) {
	h := sha1.New()
	fmt.Fprintf(h, "%s %s %s\n", c.today(), req.Method, req.URL)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return "", err
		}
		defer body.Close()
		if _, err := io.Copy(h, body); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}

// NewClient returns an http.Client with the given timeout. When cacheDir is
// not empty, successful responses are cached there for the day.
func NewClient(timeout time.Duration, cacheDir string) *http.Client {
	client := &http.Client{Timeout: timeout}
	if cacheDir != "" {
		client.Transport = &diskCache{base: http.DefaultTransport, dir: cacheDir, today: date.Today}
	}
	return client
}

// StatusError is an unexpected HTTP status. Too many requests and server
// errors unwrap to lirashield.ErrProviderUnavailable.
type StatusError struct {
	Code   int
	Status string
	Host   string
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot http %v/%v: %v", e.Host, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusTooManyRequests || e.Code >= 500 {
		return lirashield.ErrProviderUnavailable
	}
	return nil
}

// Do sends req and returns the body of a 200 response. Transport failures
// wrap lirashield.ErrProviderUnavailable, other statuses are *StatusError.
func Do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", lirashield.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, Host: req.URL.Host, Path: req.URL.Path}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", lirashield.ErrProviderUnavailable, req.URL.Host, err)
	}
	return body, nil
}

// DecodeJSON decodes a JSON document for jsonpath queries. A body that is not
// JSON, typically an error page, wraps lirashield.ErrProviderUnavailable.
func DecodeJSON(body []byte) (any, error) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %w", lirashield.ErrProviderUnavailable, err)
	}
	return jobj, nil
}

// Lookup evaluates a jsonpath expression.
func Lookup(path string, jobj any) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	return jval, nil
}

// First evaluates a jsonpath expression, keeping the first element when the
// result is a list.
func First(path string, jobj any) (any, error) {
	jval, err := Lookup(path, jobj)
	if err != nil {
		return nil, err
	}
	// jsonpath may return either a list of one answer, or the answer.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return nil, fmt.Errorf("error parsing %q: empty result", path)
		}
		jval = jlist[0]
	}
	return jval, nil
}

// Number reads a JSON number that may also be sent as a string, with either
// a dot or a comma as decimal separator.
func Number(jval any) (float64, error) {
	switch v := jval.(type) {
	case float64:
		return v, nil
	case json.Number:
		return v.Float64()
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %v", jval)
	}
}
