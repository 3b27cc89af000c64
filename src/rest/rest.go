package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

type REST struct {
	httpBaseURL string
	httpClient  *http.Client
	botToken    string
}

type RESTClient interface {
	URL() string
	Get(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error)
	Put(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error)
	Patch(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error)
	Delete(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error)
	Post(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error)
}

type RESTOptions struct {
	Headers map[string]string
}

func NewREST(baseURL, botToken string) *REST {
	return &REST{
		httpBaseURL: baseURL,
		httpClient:  http.DefaultClient,
		botToken:    botToken,
	}
}

func (r *REST) URL() string {
	return r.httpBaseURL
}

func (r *REST) do(ctx context.Context, method string, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	// Mandatory headers.
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", fmt.Sprintf("Bot %s", r.botToken))
	if options != nil {
		for k, v := range options.Headers {
			req.Header.Set(k, v)
		}
	}
	return r.httpClient.Do(req)
}

func (r *REST) Get(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	return r.do(ctx, http.MethodGet, url, body, options)
}

func (r *REST) Put(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	return r.do(ctx, http.MethodPut, url, body, options)
}

func (r *REST) Patch(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	return r.do(ctx, http.MethodPatch, url, body, options)
}

func (r *REST) Delete(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	return r.do(ctx, http.MethodDelete, url, body, options)
}

func (r *REST) Post(ctx context.Context, url string, body io.Reader, options *RESTOptions) (*http.Response, error) {
	return r.do(ctx, http.MethodPost, url, body, options)
}
