// Package docapi talks to the document service's HTTP contract:
// login, document fetch, list and delete.
package docapi

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

	"ai-docview/internal/apperror"
	"ai-docview/internal/dto"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	loginPath     = "/api/v1/auth/login"
	documentsPath = "/api/v1/documents/"

	// maxErrorBody bounds how much of a failed response is kept for logs.
	maxErrorBody = 4 << 10
)

type Client struct {
	BaseURL string
	Client  *http.Client

	tracer   trace.Tracer
	validate *validator.Validate
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: timeout,
		},
		tracer:   otel.Tracer("ai-docview/docapi"),
		validate: validator.New(),
	}
}

// Login exchanges a provider id token for a backend token and user.
func (c *Client) Login(ctx context.Context, idToken string) (*dto.LoginResponse, error) {
	body, err := c.do(ctx, "docapi.Login", http.MethodPost, loginPath, "", dto.LoginRequest{IdToken: idToken})
	if err != nil {
		return nil, err
	}

	var res dto.LoginResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unmarshal login response: %w", err)
	}
	if err := c.validate.Struct(&res); err != nil {
		return nil, fmt.Errorf("login response incomplete: %w", err)
	}
	return &res, nil
}

// GetDocument fetches one document. An empty token is refused before any
// request is made.
func (c *Client) GetDocument(ctx context.Context, token, id string) (*dto.DocumentResponse, error) {
	if token == "" {
		return nil, apperror.ErrAuthRequired
	}
	body, err := c.do(ctx, "docapi.GetDocument", http.MethodGet, documentsPath+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var res dto.DocumentResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return &res, nil
}

func (c *Client) ListDocuments(ctx context.Context, token string) ([]dto.DocumentResponse, error) {
	if token == "" {
		return nil, apperror.ErrAuthRequired
	}
	body, err := c.do(ctx, "docapi.ListDocuments", http.MethodGet, documentsPath, token, nil)
	if err != nil {
		return nil, err
	}

	var res []dto.DocumentResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("unmarshal document list: %w", err)
	}
	return res, nil
}

// DeleteDocument succeeds on any 2xx (the service answers 200 with a
// message or 204 with no body).
func (c *Client) DeleteDocument(ctx context.Context, token, id string) error {
	if token == "" {
		return apperror.ErrAuthRequired
	}
	_, err := c.do(ctx, "docapi.DeleteDocument", http.MethodDelete, documentsPath+url.PathEscape(id), token, nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path, token string, payload interface{}) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	target := c.BaseURL + path
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", target),
	)

	var reader io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewBuffer(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(bodyBytes) > maxErrorBody {
			bodyBytes = bodyBytes[:maxErrorBody]
		}
		statusErr := &apperror.StatusError{
			Method:     method,
			URL:        path,
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
		span.SetStatus(codes.Error, statusErr.Error())
		return nil, statusErr
	}

	return bodyBytes, nil
}
