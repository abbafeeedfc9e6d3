package session

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// contextKeySession はGinコンテキストにセッションを格納するキー。
const contextKeySession = "session"

// ErrNoSession はMiddlewareが適用されていないことを表す。
var ErrNoSession = errors.New("セッションミドルウェアが適用されていません")

// Options はセッションCookieの設定。
type Options struct {
	// CookieName はセッションIDを運ぶCookieの名前。
	CookieName string
	// Secret はCookieの署名鍵。
	Secret string
	// TTL はセッションとCookieの有効期間。
	TTL time.Duration
	// Secure はCookieにSecure属性を付与するかどうか。
	Secure bool
}

// binding は1リクエスト分のセッションと保存先の組。
type binding struct {
	store   Store
	session *Session
	ttl     time.Duration
}

// Middleware はリクエストごとにセッションを解決するGinミドルウェアを返す。
// Cookieが無い、または検証に失敗した場合は新しいセッションを開始してCookieを発行する。
// 変更内容はハンドラが Save を呼んだ時点で保存される。
func Middleware(store Store, opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if value, err := c.Cookie(opts.CookieName); err == nil {
			if parsed, err := ParseID(opts.Secret, value); err == nil {
				id = parsed
			} else {
				log.Printf("[Session] 不正なCookieを破棄します: %v", err)
			}
		}

		var sess *Session
		if id != "" {
			loaded, err := store.Load(c.Request.Context(), id)
			switch {
			case err == nil:
				sess = loaded
			case errors.Is(err, ErrNotFound):
				// 署名済みIDは再利用し、中身だけ新しくする
				sess = New(id)
			default:
				_ = c.Error(fmt.Errorf("セッションの読み込みに失敗: %w", err))
				c.Abort()
				return
			}
		} else {
			sess = New(NewID())
			value, err := SignID(opts.Secret, sess.ID, opts.TTL)
			if err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     opts.CookieName,
				Value:    value,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		c.Set(contextKeySession, &binding{store: store, session: sess, ttl: opts.TTL})
		c.Next()
	}
}

// FromContext はGinコンテキストからセッションを取得する。
// Middlewareが適用されていない場合はnilを返す。
func FromContext(c *gin.Context) *Session {
	b, ok := bindingFrom(c)
	if !ok {
		return nil
	}
	return b.session
}

// Save は現在のセッションを保存先に書き込む。
func Save(c *gin.Context) error {
	b, ok := bindingFrom(c)
	if !ok {
		return ErrNoSession
	}
	if err := b.store.Save(c.Request.Context(), b.session, b.ttl); err != nil {
		return fmt.Errorf("セッションの保存に失敗: %w", err)
	}
	return nil
}

func bindingFrom(c *gin.Context) (*binding, bool) {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return nil, false
	}
	b, ok := v.(*binding)
	return b, ok
}
