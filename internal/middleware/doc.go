// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 目前包含身分驗證：從 Authorization 標頭或 token 查詢參數取出 bearer token，
// 交給 auth.Provider 驗證後，把身分附加到 gin 的上下文中。
package middleware
