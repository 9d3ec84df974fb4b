package server

import (
	"net/http"
	"sync"
	"time"

	"grateful-roasted/internal/config"
	"grateful-roasted/internal/logger"
	"grateful-roasted/internal/party"
	"grateful-roasted/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Server struct {
	games    *party.Service
	hub      *realtime.Hub
	log      *zap.SugaredLogger
	cfg      config.Config
	auth     hostAuth
	upgrader websocket.Upgrader
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(games *party.Service, hub *realtime.Hub, log *zap.SugaredLogger, cfg config.Config) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	registerValidators()
	return &Server{
		games: games,
		hub:   hub,
		log:   log,
		cfg:   cfg,
		auth:  hostAuth{secret: []byte(cfg.HostAuthSecret)},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		timers: make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Requests(s.log))
	if len(s.cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", sessionHeader},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	router.GET("/join/:code", s.handleJoinView)
	router.GET("/ws/games/:id", s.handleWebsocket)

	api := router.Group("/api")
	{
		api.POST("/games", s.requireHost, s.handleCreateGame)
		api.GET("/games", s.requireHost, s.handleListGames)
		api.GET("/games/:id", s.handleGetGame)

		api.GET("/codes/:code", s.handleResolveCode)
		api.POST("/codes/:code/join", s.handleJoin)

		host := api.Group("/games/:id", s.requireHost)
		host.POST("/start", s.handleStartCollecting)
		host.POST("/reveal", s.handleStartRevealing)
		host.POST("/reveal/next", s.handleRevealNext)
		host.POST("/voting", s.handleOpenVoting)
		host.POST("/complete", s.handleComplete)
		host.GET("/progress", s.handleProgress)
		host.GET("/events", s.handleEvents)

		player := api.Group("/games/:id", s.requirePlayer)
		player.POST("/submissions", s.handleSubmit)
		player.GET("/quota", s.handleQuota)
		player.POST("/votes", s.handleVote)
		player.POST("/reactions", s.handleReact)
	}
	return router
}

// Close stops pending voting timers.
func (s *Server) Close() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
