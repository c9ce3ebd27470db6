package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/nanalyzer-go/api/controllers"
	"github.com/moyoez/nanalyzer-go/api/middlewares"
	"github.com/moyoez/nanalyzer-go/api/models"
	"github.com/moyoez/nanalyzer-go/api/notifyhub"
	"github.com/moyoez/nanalyzer-go/metrics"
	"github.com/moyoez/nanalyzer-go/share"
	"github.com/moyoez/nanalyzer-go/tool"
	"github.com/moyoez/nanalyzer-go/uploader"
)

// ShutdownTimeout bounds how long Shutdown waits for in-flight requests.
var ShutdownTimeout = 5 * time.Second

// Server is the loopback HTTP API the desktop client and web UI talk to.
type Server struct {
	port   int
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// UploadTransport returns a transport that follows the backend set with SetBackend.
func UploadTransport() uploader.Transport {
	return models.BackendTransport{}
}

// UploadOwner resolves the owner of a new upload from the current backend.
func UploadOwner() string {
	return models.CurrentUserID()
}

// SetBackend sets the analysis backend client used by every endpoint.
func SetBackend(b models.Backend) {
	models.SetBackend(b)
}

func SetUploadController(c *uploader.Controller) {
	models.SetUploadController(c)
}

func SetTracker(t *share.Tracker) {
	models.SetTracker(t)
}

// SetNotifyHub enables /notify-ws with hub.
func SetNotifyHub(hub *notifyhub.Hub) {
	models.SetNotifyHub(hub)
}

func NewServer(port int) *Server {
	return &Server{port: port}
}

func (s *Server) setupRoutes() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.AllowLocalCORS())

	engine.GET("/metrics", middlewares.OnlyAllowLocal, gin.WrapH(metrics.Handler()))

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.POST("/upload", controllers.UserStartUpload)                     // Start a chunked upload of a local file
		self.GET("/upload/status", controllers.UserUploadStatus)              // Current upload state
		self.POST("/upload/cancel", controllers.UserCancelUpload)             // Cooperative cancel of the active upload
		self.POST("/upload/reset", controllers.UserResetUpload)               // Back to idle
		self.GET("/live", controllers.UserListLive)                           // Calls with an open live channel
		self.POST("/live/:callId", controllers.UserOpenLive)                  // Open or reuse the live channel of a call
		self.GET("/live/:callId", controllers.UserGetLive)                    // Channel status and tracked analysis state
		self.DELETE("/live/:callId", controllers.UserCloseLive)               // Tear down the live channel
		self.POST("/live/:callId/disconnect", controllers.UserDisconnectLive) // Close the connection, no automatic reconnect
		self.POST("/live/:callId/reconnect", controllers.UserReconnectLive)   // Dial again now
		self.POST("/live/:callId/send", controllers.UserSendLive)             // Write one event on the open connection
		self.GET("/calls", controllers.UserListCalls)                         // Analysed calls, paginated
		self.GET("/calls/:callId", controllers.UserGetCall)                   // One call with segments and summary
		self.GET("/calls/:callId/segments", controllers.UserGetCallSegments)  // Segments only
		self.POST("/calls/:callId/feedback", controllers.UserSubmitFeedback)  // Corrected emotion scores
		self.DELETE("/calls/:callId", controllers.UserDeleteCall)             // Delete a call and drop its live state
		self.POST("/user/register", controllers.UserRegister)                 // Register and adopt a new user
		self.POST("/user/login", controllers.UserLogin)                       // Adopt an existing user
		self.POST("/user/logout", controllers.UserLogout)                     // Forget the configured user
		self.GET("/user", controllers.UserGetProfile)                         // Configured user profile
		self.PUT("/user/settings", controllers.UserUpdateSettings)            // Retention settings
		self.POST("/voice/train", controllers.UserTrainVoice)                 // Voice enrollment from WAV recordings
		self.POST("/voice/verify", controllers.UserVerifyVoice)               // Speaker verification of one recording
		self.GET("/create-qr-code", controllers.GenerateCallQRCode)           // QR code PNG linking to a call page
		self.GET("/probe", controllers.UserProbeBackend)                      // Backend reachability
		self.GET("/status", controllers.UserStatus)                           // Running and notify_ws_enabled for web UI
		if hub := models.GetNotifyHub(); hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(hub))
		}
		self.GET("/config", controllers.UserConfigGet)
		self.PATCH("/config", controllers.UserConfigPatch)
	}
	return engine
}

// Handler builds the route table without starting a listener.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		s.engine = s.setupRoutes()
	}
	return s.engine
}

// Start starts the HTTP server on the loopback interface. It returns nil after Shutdown.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("Starting API server on http://127.0.0.1:%d", s.port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes every live channel.
func (s *Server) Shutdown(ctx context.Context) error {
	models.CloseAllLiveChannels()
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
