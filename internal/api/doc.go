// Package api 處理 HTTP 請求路由和處理。
//
// 這個包負責把路由接到 handlers：WebSocket 連接點、聊天紀錄、在線名單與個人資料。
// 所有需要身分的路由都先經過 middleware.AuthMiddleware。
package api
