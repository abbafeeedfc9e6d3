// Package httpclient はバックエンドAPIサーバーとのHTTP通信を行うクライアントを提供する。
//
// gatewayがトークン発行エンドポイントと認可付きAPIを呼び出す際に使用する。
// 2xx以外のレスポンスはステータスとボディを保持した StatusError として返すため、
// 呼び出し側はステータスに応じてエラーを分類できる。
package httpclient
