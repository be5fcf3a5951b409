package router

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	predicthandler "classifier_web/internal/feature/predict/transport/handler"
	"classifier_web/internal/platform/http/handler"
)

// NewRouter はページ・プレビュー・JSON API・運用系エンドポイントを登録したルーターを生成します。
func NewRouter(page *predicthandler.PageHandler, apiH *predicthandler.APIHandler,
	ready gin.HandlerFunc, corsOrigins []string) (*gin.Engine, error) {
	r := gin.Default()

	tmpl, err := predicthandler.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/readyz", ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 画面
	r.GET("/", page.Index)
	r.POST("/views/:id/select", page.Select)
	r.POST("/views/:id/predict", page.Predict)
	r.POST("/views/:id/info", page.Info)
	r.POST("/views/:id/close", page.Close)
	r.GET("/previews/:id", page.Preview)

	// JSON API（ブラウザ以外のクライアント向けにCORSを許可）
	v1 := r.Group("/v1")
	v1.Use(cors.New(corsConfig(corsOrigins)))
	{
		v1.POST("/predict", apiH.Predict)
	}

	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"POST", "OPTIONS"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
