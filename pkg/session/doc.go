// Package session はgatewayが呼び出し元ごとに保持するセッションを提供する。
//
// セッションはバックエンドから取得したトークンを型付きの Auth スロットに保持する。
// 保存先はメモリ、Redis、SQLiteから選択でき、セッションIDは署名付きCookieで
// ブラウザとやり取りする。同一セッションへの並行リクエストは調停しないため、
// 後から保存された内容が残る。
package session
