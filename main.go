package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"raidserver/database" //PostgreSQLとRedisの初期化
	"raidserver/handlers" //レイドAPIとWebsocketフィードのハンドラー
	ws "raidserver/internal/websocket"
	"raidserver/raid"  //レイドセッションの中核ロジック
	"raidserver/utils" //ロガーの初期化とCronジョブ(放置ルームの定期クリーンナップ)

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	var logger *zap.Logger
	var err error
	logger, err = utils.InitLogger() // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync() // ロガーのクリーンアップ

	// .envがあれば読み込む（無ければ環境変数をそのまま使う）
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, reading environment variables directly")
	}

	// 非同期でPostgreSQLとRedisの初期化
	var db *gorm.DB
	var rdb *redis.Client
	done := make(chan bool)

	config, err := database.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("設定ファイルの読み込みに失敗しました", zap.Error(err))
	}

	go func() {
		db, err = database.InitPostgreSQL(config, logger)
		if err != nil {
			logger.Fatal("PostgreSQLの初期化に失敗しました", zap.Error(err))
		}
		done <- true
	}()

	go func() {
		rdb, err = database.InitRedis(logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		done <- true
	}()

	// 2つの初期化が完了するのを待つ
	<-done
	<-done

	// テーブルの作成・更新
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// クーロンスケジューラのセットアップと呼び出し
	go utils.CronCleaner(db, logger)

	// レイドセッションサービスと変更通知フィードの組み立て
	notifier := raid.NewRedisNotifier(rdb, logger)
	svc := raid.NewService(raid.NewGormStore(db), notifier, logger)
	hub := ws.NewHub(rdb, logger)
	go hub.Run(context.Background())

	router := gin.Default()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://192.168.1.1:8080"}, //ここにデプロイサーバーのIPアドレスを設定
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	//各HTTPリクエストのルーティング
	router.POST("/raid/create", func(c *gin.Context) {
		handlers.RaidCreate(c, svc, logger)
	})
	router.POST("/raid/join", func(c *gin.Context) {
		handlers.RaidJoin(c, svc, logger)
	})
	router.POST("/raid/action", func(c *gin.Context) {
		handlers.RaidAction(c, svc, logger)
	})
	router.GET("/raid/rooms/:roomID", func(c *gin.Context) {
		handlers.RaidSnapshot(c, svc, logger)
	})
	router.GET("/ws/:roomID", func(c *gin.Context) {
		handlers.HandleRaidFeed(c, hub, svc, logger)
	})
	router.GET("/healthz", func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "ng"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// デフォルトポートは ":8080"
	addr := config.ServerAddr
	if addr == "" {
		addr = ":8080"
	}
	router.Run(addr)
}
