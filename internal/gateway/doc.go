// Package gateway はブラウザからのリクエストをバックエンドAPIサーバーへ転送するGatewayを提供する。
//
// 呼び出し元のセッションにトークンが無ければ事前共有のクライアントシークレットで
// バックエンドから発行を受けてセッションにキャッシュし、以降のリクエストでは
// authorizationヘッダーに載せて転送する。バックエンドの5xx未満のエラーは
// 意図されたエラーとしてそのまま応答し、5xxと通信エラーはエラーハンドラに渡す。
package gateway
