package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client はバックエンドAPIサーバー用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL（バージョンパスを含む）。
	baseURL string
}

// New は新しいバックエンド用HTTPクライアントを生成する。
// baseURLには接続先APIのベースURL（例: "http://localhost:8002/v2"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// BaseURL は接続先のベースURLを返す。
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Response はバックエンドから受け取ったレスポンス。
// ボディは解釈せずそのまま保持する。
type Response struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body []byte
}

// Decode はレスポンスボディをvにデシリアライズする。
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
	}
	return nil
}

// StatusError はバックエンドが2xx以外のステータスを返したことを表す。
type StatusError struct {
	// StatusCode はバックエンドが返したHTTPステータスコード。
	StatusCode int
	// Body はエラーレスポンスのボディ。
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, string(e.Body))
}

// Response はエラーの元になったレスポンスを返す。
func (e *StatusError) Response() *Response {
	return &Response{StatusCode: e.StatusCode, Body: e.Body}
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// 2xx以外のステータスの場合は *StatusError を返す。
func (c *Client) PostJSON(ctx context.Context, path string, body any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, path, body)
}

// GetJSON は指定パスにGETリクエストを送信する。
// 2xx以外のステータスの場合は *StatusError を返す。
func (c *Client) GetJSON(ctx context.Context, path string) (*Response, error) {
	return c.doJSON(ctx, http.MethodGet, path, nil)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	// コンテキストからトークンを伝播する
	if token, ok := ctx.Value(contextKeyAuthorization).(string); ok {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスの読み取りに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyAuthorization はコンテキストにトークンを格納するためのキー。
const contextKeyAuthorization contextKey = "authorization"

// WithAuthorization はコンテキストにトークンを設定する。
// 設定されたトークンはauthorizationヘッダーとしてそのまま送信される。
func WithAuthorization(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyAuthorization, token)
}
