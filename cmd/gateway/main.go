// Gatewayサービスのエントリポイント。
// ブラウザからのリクエストを受け付け、セッションにキャッシュしたトークンを付けてバックエンドAPIへ転送する。
package main

import (
	"flag"
	"log"
	"os"

	"github.com/nao1215/nodecat/internal/config"
	"github.com/nao1215/nodecat/internal/gateway"
)

func main() {
	configPath := flag.String("config", os.Getenv("NODECAT_CONFIG"), "YAML設定ファイルのパス")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := gateway.NewServer(cfg)
	if err != nil {
		log.Fatalf("Gatewayサーバーの初期化に失敗: %v", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Printf("[Gateway] セッション保存先のクローズに失敗: %v", err)
		}
	}()

	log.Printf("Gatewayサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Printf("Gatewayサービスの起動に失敗: %v", err)
		return
	}
}
