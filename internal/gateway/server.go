package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/nodecat/internal/config"
	"github.com/nao1215/nodecat/pkg/httpclient"
	"github.com/nao1215/nodecat/pkg/middleware"
	"github.com/nao1215/nodecat/pkg/session"
	"github.com/redis/go-redis/v9"
)

// Server はGatewayのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に構築した設定。
	cfg *config.Config
	// sessions はセッションの保存先。
	sessions session.Store
	// backend は /mypost と /search の転送先クライアント。
	backend *httpclient.Client
	// diagnostic は /test の転送先クライアント。
	diagnostic *httpclient.Client
}

// NewServer は設定に従ってセッション保存先を開き、新しいGatewayサーバーを生成する。
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openSessionStore(ctx, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("セッション保存先の初期化に失敗: %w", err)
	}

	s, err := newServer(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// newServer は指定したセッション保存先を使うGatewayサーバーを生成する。
func newServer(cfg *config.Config, store session.Store) (*Server, error) {
	router := gin.New()
	router.UseRawPath = true
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS([]string{cfg.FrontendURL}))

	if err := loadViews(router, cfg.TemplateDir); err != nil {
		return nil, err
	}

	s := &Server{
		router:     router,
		cfg:        cfg,
		sessions:   store,
		backend:    httpclient.New(cfg.BackendURL),
		diagnostic: httpclient.New(cfg.DiagnosticBackendURL),
	}
	s.setupRoutes()

	return s, nil
}

// openSessionStore は設定された種類のセッション保存先を開く。
func openSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("Redisへの接続に失敗: %w", err)
		}
		return session.NewRedisStore(client, cfg.RedisPrefix), nil
	case config.StoreSQLite:
		return session.OpenSQLite(ctx, cfg.SQLitePath)
	case config.StoreMemory, "":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("未知のセッション保存先です: %q", cfg.Store)
	}
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	log.Printf("[Gateway] 転送先: %s, 診断用: %s, セッション保存先: %s",
		s.backend.BaseURL(), s.diagnostic.BaseURL(), s.cfg.Session.Store)
	return s.router.Run(fmt.Sprintf(":%s", s.cfg.Port))
}

// Close はセッション保存先を解放する。
func (s *Server) Close() error {
	return s.sessions.Close()
}

// setupRoutes はルーティングを設定する。
func (s *Server) setupRoutes() {
	// ヘルスチェック（セッション不要）
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})

	sessions := session.Middleware(s.sessions, session.Options{
		CookieName: s.cfg.Session.CookieName,
		Secret:     s.cfg.Session.Secret,
		TTL:        s.cfg.Session.TTL,
		Secure:     s.cfg.Session.Secure,
	})

	app := s.router.Group("/")
	app.Use(sessions)
	{
		app.GET("/", s.handleIndex())
		app.GET("/mypost", s.handleMyPosts())
		app.GET("/search/:hashtag", s.handleSearchHashtag())
		// 診断用
		app.GET("/test", s.handleTokenTest())
	}
}

// handleIndex はクライアントシークレットを埋め込んだトップページを返すハンドラを返す。
func (s *Server) handleIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, mainView, gin.H{
			"key": s.cfg.ClientSecret,
			"api": s.cfg.BackendURL,
		})
	}
}

// handleMyPosts は自分の投稿一覧を転送するハンドラを返す。
func (s *Server) handleMyPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := s.forward(c, s.backend, forwardPolicy, "/posts/my")
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		relayJSON(c, resp)
	}
}

// handleSearchHashtag はハッシュタグ検索を転送するハンドラを返す。
// どの種類のエラーでも必ずエラーハンドラに渡して応答する。
func (s *Server) handleSearchHashtag() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := "/posts/hashtag/" + escapeComponent(c.Param("hashtag"))
		resp, err := s.forward(c, s.backend, forwardPolicy, path)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		relayJSON(c, resp)
	}
}

// handleTokenTest は診断用APIでトークンの発行と利用を確認するハンドラを返す。
// 発行失敗の理由と期限切れ(419)の応答はステータス200で返す。
func (s *Server) handleTokenTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := s.forward(c, s.diagnostic, diagnosticPolicy, "/test")
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		relayJSON(c, resp)
	}
}
