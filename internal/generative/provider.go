// Package generative — клиент внешнего API генерации изображений (мокапы и цветовые вариации).
package generative

import (
	"ImageHub/internal/apperr"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	ErrAuthInvalid    = fmt.Errorf("generative provider: invalid api key: %w", apperr.ErrUpstream)
	ErrQuotaExceeded  = fmt.Errorf("generative provider: quota exceeded: %w", apperr.ErrUpstream)
	ErrProvider       = fmt.Errorf("generative provider: %w", apperr.ErrUpstream)
	maxResultBytes    = int64(32 << 20)
	defaultHTTPClient = &http.Client{Timeout: 2 * time.Minute}
)

type Request struct {
	Image       []byte
	ContentType string
	Prompt      string
}

type Result struct {
	Image       []byte
	ContentType string
}

// Provider генерирует изображение по исходнику и текстовому запросу.
type Provider interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// HTTPProvider отправляет multipart-запрос (image, prompt) и ждёт байты изображения в ответе.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPProvider(endpoint, apiKey string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = defaultHTTPClient
	}
	return &HTTPProvider{endpoint: endpoint, apiKey: apiKey, client: client}
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Result, error) {
	body, contentType, err := encode(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{}, ErrAuthInvalid
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, ErrQuotaExceeded
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Result{}, fmt.Errorf("%w: status %d", ErrProvider, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %w", ErrProvider, err)
	}
	if int64(len(data)) > maxResultBytes {
		return Result{}, fmt.Errorf("%w: result too large", ErrProvider)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return Result{}, fmt.Errorf("%w: unexpected content type %q", ErrProvider, ct)
	}
	return Result{Image: data, ContentType: ct}, nil
}

func encode(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", err
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="source"`)
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
