package gateway

import (
	"embed"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// mainView はトップページのテンプレート名。
const mainView = "main.html"

//go:embed templates/*.html
var viewsFS embed.FS

// loadViews はルーターにHTMLテンプレートを設定する。
// dirが空の場合は組み込みのテンプレートを使う。
func loadViews(router *gin.Engine, dir string) error {
	if dir != "" {
		tmpl, err := template.ParseGlob(filepath.Join(dir, "*.html"))
		if err != nil {
			return fmt.Errorf("テンプレートの読み込みに失敗: %w", err)
		}
		router.SetHTMLTemplate(tmpl)
		return nil
	}

	tmpl, err := template.ParseFS(viewsFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("組み込みテンプレートの読み込みに失敗: %w", err)
	}
	router.SetHTMLTemplate(tmpl)
	return nil
}
