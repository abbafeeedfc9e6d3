package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrBadGateway はバックエンドとの通信自体に失敗したことを表す。
// c.Errorに渡すエラーがこれをラップしている場合、502を返す。
var ErrBadGateway = errors.New("バックエンドとの通信に失敗しました")

// ErrorHandler はハンドラがc.Errorで記録したエラーを処理するGinミドルウェアを返す。
// ハンドラがまだ応答していない場合に限り、エラーをログに出力してJSONで応答する。
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
		if c.Writer.Written() {
			return
		}

		last := c.Errors.Last().Err
		if errors.Is(last, ErrBadGateway) {
			c.JSON(http.StatusBadGateway, gin.H{"error": ErrBadGateway.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部サーバーエラーが発生しました"})
	}
}
