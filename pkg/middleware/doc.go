// Package middleware はgatewayで使用する共通Ginミドルウェアを提供する。
//
// パニックリカバリ、CORS設定、ハンドラが記録したエラーを応答に変換する
// エラーハンドラを含む。
package middleware
