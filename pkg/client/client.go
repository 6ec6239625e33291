// Package client 后台REST接口客户端，处理 {code,message,data} 响应信封
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "thrivex/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// ErrAuthExpired 登录已失效（HTTP 401 或信封中的 401）
var ErrAuthExpired = errors.New("登录已过期，请重新登录")

// APIError 后端返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("接口错误 %d: %s", e.Code, e.Message)
}

// NetworkError 请求未到达后端或响应无法读取
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "网络错误: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Envelope 响应信封
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client REST客户端
type Client struct {
	http  *resty.Client
	token string
}

// New 创建客户端，baseURL 形如 http://localhost:9003/api/v1
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// SetToken 设置Bearer令牌
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

// Do 发送请求并解析信封，code 为 200 或 600 时把 data 解码到 out
//
// 600 原样返回给调用方，不视为错误。
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) (*Envelope, error) {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.send(req, method, path, out)
}

func (c *Client) send(req *resty.Request, method, path string, out interface{}) (*Envelope, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	if resp.IsError() {
		return nil, &APIError{Code: resp.StatusCode(), Message: resp.String()}
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("解析响应失败: %w", err)}
	}

	switch {
	case env.Code == apperrors.CodeUnauthorized:
		return &env, ErrAuthExpired
	case !apperrors.IsSuccess(env.Code):
		return &env, &APIError{Code: env.Code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &env, fmt.Errorf("解析响应数据失败: %w", err)
		}
	}
	return &env, nil
}

// Download 下载附件，返回文件内容；失败时按信封解析错误
func (c *Client) Download(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrAuthExpired
	}
	if resp.IsError() {
		return nil, &APIError{Code: resp.StatusCode(), Message: resp.String()}
	}

	if resp.Header().Get("Content-Disposition") == "" {
		var env Envelope
		if err := json.Unmarshal(resp.Body(), &env); err == nil && !apperrors.IsSuccess(env.Code) {
			if env.Code == apperrors.CodeUnauthorized {
				return nil, ErrAuthExpired
			}
			return nil, &APIError{Code: env.Code, Message: env.Message}
		}
	}
	return resp.Body(), nil
}
