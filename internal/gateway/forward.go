package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/nodecat/pkg/httpclient"
	"github.com/nao1215/nodecat/pkg/middleware"
	"github.com/nao1215/nodecat/pkg/session"
)

// statusTokenExpired はバックエンドがトークン期限切れを知らせるステータスコード。
const statusTokenExpired = 419

// tokenRequest はトークン発行エンドポイントへのリクエストボディ。
type tokenRequest struct {
	ClientSecret string `json:"clientSecret"`
}

// tokenResponse はトークン発行エンドポイントの応答。
// 診断用APIはボディにもステータスコードを含める。
type tokenResponse struct {
	Code  int    `json:"code"`
	Token string `json:"token"`
}

// tokenPolicy はトークン取得と転送時のエラー分類の方針。
type tokenPolicy struct {
	// accept はトークン応答を発行成功とみなすかを判定する。
	// falseの場合はトークン応答をそのまま呼び出し元へ返し、認可付きAPIは呼ばない。
	accept func(tokenResponse) bool
	// passThrough はバックエンドのエラーステータスを通常の結果として返すかを判定する。
	// falseの場合はエラーとしてエラーハンドラへ渡す。
	passThrough func(status int) bool
}

// forwardPolicy は /mypost と /search で使う方針。
// 5xx未満のエラーは意図されたエラーとして応答する。
var forwardPolicy = tokenPolicy{
	accept:      func(tokenResponse) bool { return true },
	passThrough: func(status int) bool { return status < http.StatusInternalServerError },
}

// diagnosticPolicy は /test で使う方針。
// ボディのcodeが200の場合のみ発行成功とし、期限切れ(419)のみ応答する。
var diagnosticPolicy = tokenPolicy{
	accept:      func(r tokenResponse) bool { return r.Code == http.StatusOK },
	passThrough: func(status int) bool { return status == statusTokenExpired },
}

// forward はセッションのトークンを使ってバックエンドのapiPathを呼び出す。
// トークンが無ければ先に発行を受けてセッションに保存する。
// passThroughで許可されたエラーはレスポンスとして返し、それ以外はエラーを返す。
func (s *Server) forward(c *gin.Context, client *httpclient.Client, policy tokenPolicy, apiPath string) (*httpclient.Response, error) {
	sess := session.FromContext(c)
	if sess == nil {
		return nil, session.ErrNoSession
	}

	token, ok := sess.Token()
	if !ok {
		resp, issued, err := s.acquireToken(c, client, policy)
		if err != nil {
			return nil, err
		}
		if !issued {
			return resp, nil
		}
		token, _ = sess.Token()
	}

	ctx := httpclient.WithAuthorization(c.Request.Context(), token)
	resp, err := client.GetJSON(ctx, apiPath)
	if err != nil {
		return classify(err, policy)
	}
	return resp, nil
}

// acquireToken はトークンを発行してもらい、受理できればセッションに保存する。
// issuedがfalseの場合、respは呼び出し元へそのまま返すべき応答。
func (s *Server) acquireToken(c *gin.Context, client *httpclient.Client, policy tokenPolicy) (resp *httpclient.Response, issued bool, err error) {
	resp, err = client.PostJSON(c.Request.Context(), "/token", tokenRequest{ClientSecret: s.cfg.ClientSecret})
	if err != nil {
		resp, err = classify(err, policy)
		return resp, false, err
	}

	var tr tokenResponse
	if err := resp.Decode(&tr); err != nil {
		log.Printf("[Gateway] トークン応答を解釈できません: %v", err)
	}
	if !policy.accept(tr) {
		return resp, false, nil
	}

	sess := session.FromContext(c)
	sess.SetToken(tr.Token)
	if err := session.Save(c); err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

// classify はバックエンド呼び出しのエラーを分類する。
// ステータスを伴い、policyが許可するものはレスポンスとして返す。
func classify(err error, policy tokenPolicy) (*httpclient.Response, error) {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if policy.passThrough(statusErr.StatusCode) {
			return statusErr.Response(), nil
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", middleware.ErrBadGateway, err)
}

// relayJSON はバックエンドのボディをステータス200のJSONとして応答する。
// JSONでないボディは文字列としてエンコードする。
func relayJSON(c *gin.Context, resp *httpclient.Response) {
	if json.Valid(resp.Body) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Body)
		return
	}
	c.JSON(http.StatusOK, string(resp.Body))
}

// escapeComponent はsをURIの1セグメントとしてパーセントエンコードする。
// 英数字と - _ . ! ~ * ' ( ) 以外の全てのバイトをエンコードする。
func escapeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isUnreservedComponent(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0F])
	}
	return b.String()
}

func isUnreservedComponent(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", ch) >= 0
}
