// Package server exposes single-question distractor generation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/talesin/civics100-sub000/internal/genclient"
	"github.com/talesin/civics100-sub000/internal/pipeline"
	"github.com/talesin/civics100-sub000/internal/quiz"
)

// Runner generates distractors for one question. *pipeline.Runner
// implements it.
type Runner interface {
	Run(ctx context.Context, q quiz.Question, target int) pipeline.Result
}

// StatsFunc reports generation client counters.
type StatsFunc func() genclient.Stats

// Server holds the HTTP handlers.
type Server struct {
	runner    Runner
	questions map[string]quiz.Question
	target    int
	stats     StatsFunc
	log       *zap.Logger
}

// New creates a Server over a loaded question set. stats may be nil when
// generation is disabled.
func New(runner Runner, questions []quiz.Question, target int, stats StatsFunc, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	byID := make(map[string]quiz.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &Server{runner: runner, questions: byID, target: target, stats: stats, log: log.Named("server")}
}

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, APIResponse{Success: true, Message: "ok"})
	})

	api := r.Group("/api")
	api.GET("/questions/:id/distractors", s.generateForID)
	api.POST("/distractors", s.generateAdHoc)
	api.GET("/cache/stats", s.cacheStats)
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) generateForID(c *gin.Context) {
	q, ok := s.questions[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "question not found", nil)
		return
	}
	target := s.target
	if raw := c.Query("target"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 5 || n > 20 {
			fail(c, http.StatusBadRequest, "target must be an integer between 5 and 20", nil)
			return
		}
		target = n
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "distractors generated",
		Data:    s.runner.Run(c.Request.Context(), q, target),
	})
}

type generateRequest struct {
	ID       string   `json:"id"`
	Question string   `json:"question" binding:"required"`
	Topic    string   `json:"topic"`
	Section  string   `json:"section"`
	Kind     string   `json:"kind" binding:"omitempty,oneof=text senator representative governor capital president"`
	Answers  []string `json:"answers" binding:"required,min=1,dive,required"`
	Target   int      `json:"target" binding:"omitempty,min=5,max=20"`
}

func (s *Server) generateAdHoc(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	q := quiz.Question{
		ID:             req.ID,
		Text:           req.Question,
		Topic:          req.Topic,
		Section:        req.Section,
		Kind:           quiz.KindText,
		CorrectAnswers: req.Answers,
	}
	if req.Kind != "" {
		q.Kind = quiz.AnswerKind(req.Kind)
	}
	if q.ID == "" {
		q.ID = "adhoc"
	}
	target := req.Target
	if target == 0 {
		target = s.target
	}
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "distractors generated",
		Data:    s.runner.Run(c.Request.Context(), q, target),
	})
}

func (s *Server) cacheStats(c *gin.Context) {
	if s.stats == nil {
		fail(c, http.StatusNotFound, "generation client disabled", nil)
		return
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: "cache statistics", Data: s.stats()})
}

func fail(c *gin.Context, status int, msg string, err error) {
	resp := APIResponse{Success: false, Message: msg}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
