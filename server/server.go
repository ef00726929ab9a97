// Package server is the browser front of the assistant: a server-rendered
// form backed by a single generator.Controller, with state pushed over a
// websocket.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"content_assistant/generator"
	"content_assistant/logger"
	"content_assistant/publisher"
)

//go:embed web/index.html
var webFS embed.FS

type Server struct {
	ctrl *generator.Controller
	pub  *publisher.Publisher
	hub  *hub
	tmpl *template.Template
}

func New(ctrl *generator.Controller, pub *publisher.Publisher) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("generator controller required")
	}
	if pub == nil {
		pub = publisher.New("")
	}

	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"excerpt": publisher.Excerpt}).
		ParseFS(webFS, "web/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	s := &Server{
		ctrl: ctrl,
		pub:  pub,
		hub:  newHub(),
		tmpl: tmpl,
	}
	ctrl.Subscribe(s.hub.broadcast)
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := gin.New()
	r.Use(RequestLogger(), Metrics(), gin.Recovery())
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.handleIndex)
	r.GET("/state", s.handleState)
	r.GET("/ws", s.handleWS)
	r.GET("/download", s.handleDownload)
	r.POST("/download", s.handleDownload)
	r.POST("/generate", s.handleGenerate)
	r.POST("/examples/:index", s.handleExample)
	r.POST("/clear", s.handleClear)
	r.POST("/copy", s.handleCopy)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// --- Handlers ---

// paramsForm mirrors generator.Params field for field so one converts to
// the other.
type paramsForm struct {
	Assistant   string  `form:"assistant"`
	Topic       string  `form:"topic"`
	BrandType   string  `form:"brand_type"`
	Audience    string  `form:"audience"`
	Tone        string  `form:"tone"`
	Platform    string  `form:"platform"`
	Model       string  `form:"model"`
	Temperature float64 `form:"temperature"`
	MaxTokens   int     `form:"max_tokens"`
}

type pageData struct {
	generator.Snapshot
	Preview    template.HTML
	Assistants []string
	Platforms  []string
	Examples   []generator.Example
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.ctrl.Snapshot()
	data := pageData{
		Snapshot:   snap,
		Assistants: generator.Assistants,
		Platforms:  generator.Platforms,
		Examples:   generator.Examples(),
	}
	if snap.Output != "" {
		preview, err := s.pub.RenderMarkdown(snap.Output)
		if err != nil {
			logger.Warnf("preview rendering failed: %v", err)
		} else {
			data.Preview = preview
		}
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debugw("websocket upgrade failed", "err", err)
		return
	}
	initial, err := json.Marshal(s.ctrl.Snapshot())
	if err != nil {
		logger.Error("failed to encode snapshot", err)
		conn.Close()
		return
	}
	s.hub.serve(conn, initial)
}

func (s *Server) handleGenerate(c *gin.Context) {
	if !s.applyForm(c) {
		return
	}
	// The page learns about the result through the websocket, so the request
	// does not wait for the backend.
	go func() {
		err := s.ctrl.Submit(context.Background())
		if err != nil {
			logger.Debugw("submit finished with error", "err", err)
		}
	}()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleExample(c *gin.Context) {
	if !s.applyForm(c) {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.String(http.StatusBadRequest, "invalid example index")
		return
	}
	ex, ok := generator.ExampleAt(idx)
	if !ok {
		c.String(http.StatusNotFound, "example not found")
		return
	}
	s.ctrl.ApplyExample(ex)
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleClear(c *gin.Context) {
	if !s.applyForm(c) {
		return
	}
	s.ctrl.Clear()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleCopy(c *gin.Context) {
	if !s.applyForm(c) {
		return
	}
	s.ctrl.CopyOutput()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleDownload(c *gin.Context) {
	if c.Request.Method == http.MethodPost && !s.applyForm(c) {
		return
	}
	d, ok := s.ctrl.DownloadOutput()
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	c.Data(http.StatusOK, d.ContentType, d.Content)
}

// --- Helpers ---

// applyForm stores the posted form fields in the controller before an
// action runs. Requests without form fields leave the fields alone. It
// writes a 400 and reports false when the fields are unusable.
func (s *Server) applyForm(c *gin.Context) bool {
	if _, ok := c.GetPostForm("assistant"); !ok {
		return true
	}
	var f paramsForm
	if err := c.ShouldBind(&f); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return false
	}
	if err := s.ctrl.SetParams(generator.Params(f)); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
