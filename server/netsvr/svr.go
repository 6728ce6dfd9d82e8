package netsvr

import (
	"net/http"

	"github.com/zintix-labs/tumblelab/server/app"
)

// NetSvr 可路由、可交給 app.App 管理生命週期的 HTTP server。
// 只依賴 net/http 介面；換框架時另寫 adapter 即可。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 只有路由行為，handler / 子模組拿不到 Run/Shutdown。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Put(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
	// Handle 掛載任意 http.Handler（例如 promhttp）
	Handle(path string, h http.Handler)

	Group(path string, fn func(NetRouter))
}
