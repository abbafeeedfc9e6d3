package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound は指定IDのセッションが存在しない、または期限切れであることを表す。
var ErrNotFound = errors.New("セッションが見つかりません")

// Auth はバックエンドから発行された認証情報を保持する。
type Auth struct {
	// Token はバックエンドが発行したトークン。authorizationヘッダーにそのまま載せる。
	Token string `json:"token,omitempty"`
}

// Session は呼び出し元ブラウザ1つに対応するセッション。
type Session struct {
	// ID はセッションID（UUID v4）。
	ID string `json:"id"`
	// Auth はトークンを保持する型付きスロット。
	Auth Auth `json:"auth"`
	// CreatedAt はセッションの生成時刻。
	CreatedAt time.Time `json:"created_at"`
}

// New は空のセッションを生成する。
func New(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now().UTC()}
}

// Token はキャッシュ済みトークンを返す。未取得の場合はokがfalseになる。
func (s *Session) Token() (token string, ok bool) {
	if s == nil || s.Auth.Token == "" {
		return "", false
	}
	return s.Auth.Token, true
}

// SetToken はトークンをキャッシュする。
func (s *Session) SetToken(token string) {
	s.Auth.Token = token
}

// ClearToken はキャッシュ済みトークンを破棄する。
func (s *Session) ClearToken() {
	s.Auth = Auth{}
}

// Store はセッションの永続化先。
type Store interface {
	// Load はIDに対応するセッションを返す。存在しない場合は ErrNotFound を返す。
	Load(ctx context.Context, id string) (*Session, error)
	// Save はセッションをttlの間保存する。
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	// Delete はセッションを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, id string) error
	// Close は保存先との接続を解放する。
	Close() error
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("セッションのシリアライズに失敗: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("セッションのデシリアライズに失敗: %w", err)
	}
	return &s, nil
}
