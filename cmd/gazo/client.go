package main

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
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/gazo/internal/models"
)

// client talks to a running gazo server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *client) search(ctx context.Context, args searchArgs) (*models.SearchResponse, error) {
	var req *http.Request
	var err error
	switch args.mode {
	case modeImage:
		req, err = c.imageRequest(ctx, args)
	case modeFilename:
		q := url.Values{"q": {args.query}}
		if args.count > 0 {
			q.Set("count", strconv.Itoa(args.count))
		}
		if args.fuzzy {
			q.Set("fuzzy", "true")
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/search/filename?"+q.Encode(), nil)
	default:
		body, marshalErr := json.Marshal(models.SearchRequest{Query: args.query, Count: args.count, Threshold: args.threshold})
		if marshalErr != nil {
			return nil, marshalErr
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/search", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}
	var response models.SearchResponse
	if err := c.do(req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// imageRequest uploads the query image as multipart field "image".
func (c *client) imageRequest(ctx context.Context, args searchArgs) (*http.Request, error) {
	f, err := os.Open(args.imagePath)
	if err != nil {
		return nil, fmt.Errorf("open query image: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(args.imagePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read query image: %w", err)
	}
	if args.count > 0 {
		_ = mw.WriteField("count", strconv.Itoa(args.count))
	}
	if args.threshold != nil {
		_ = mw.WriteField("threshold", strconv.FormatFloat(*args.threshold, 'f', -1, 64))
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/search/image", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func (c *client) status(ctx context.Context) (*models.StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	var s models.StatusResponse
	if err := c.do(req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
