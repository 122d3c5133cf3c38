package server

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/converters"
	"github.com/GabrielNunesIT/openapi-tryit/internal/catalog"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/GabrielNunesIT/openapi-tryit/internal/synth"
)

func (s *Server) routes(e *gin.Engine) {
	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := e.Group("/api")
	api.GET("/specs", s.listSpecs)
	api.POST("/specs", s.createSpec)
	api.GET("/specs/:id", s.getSpec)
	api.DELETE("/specs/:id", s.deleteSpec)
	api.GET("/specs/:id/operations", s.listOperations)
	api.POST("/specs/:id/request-defaults", s.requestDefaults)
	api.GET("/specs/:id/export", s.exportSpec)
	api.POST("/serialize", s.serialize)
	api.POST("/execute-request", s.executeRequest)
	api.POST("/fetch-spec", s.fetchSpec)
}

type specSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Version   string    `json:"version,omitempty"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Server) listSpecs(c *gin.Context) {
	list, err := s.specs.Store().List(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]specSummary, 0, len(list))
	for _, spec := range list {
		out = append(out, specSummary{
			ID:        spec.ID,
			Title:     spec.Title,
			Version:   spec.Version,
			SourceURL: spec.SourceURL,
			UpdatedAt: spec.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

type createSpecRequest struct {
	ID      string `json:"id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) createSpec(c *gin.Context) {
	var req createSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	spec, _, err := s.specs.Import(c, req.ID, req.Content, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, spec)
}

func (s *Server) getSpec(c *gin.Context) {
	spec, err := s.specs.Store().Get(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (s *Server) deleteSpec(c *gin.Context) {
	if err := s.specs.Store().Delete(c, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listOperations(c *gin.Context) {
	doc, err := s.specs.Load(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	cat := catalog.New(doc)
	entries := cat.Filter(c.Query("tag"), c.Query("method"))

	if q := c.Query("q"); q != "" {
		matched := make(map[string]bool)
		for _, e := range cat.Search(q) {
			matched[e.Method+" "+e.Path] = true
		}
		kept := entries[:0]
		for _, e := range entries {
			if matched[e.Method+" "+e.Path] {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

type requestDefaultsRequest struct {
	Path        string `json:"path" binding:"required"`
	Method      string `json:"method" binding:"required"`
	ServerIndex *int   `json:"serverIndex" binding:"omitempty,min=0"`
}

func (s *Server) requestDefaults(c *gin.Context) {
	var req requestDefaultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	doc, err := s.specs.Load(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	op, item, err := catalog.New(doc).Find(req.Path, req.Method)
	if err != nil {
		s.fail(c, err)
		return
	}

	var server *domain.Server
	if req.ServerIndex != nil {
		if *req.ServerIndex >= len(doc.Servers) {
			s.fail(c, domain.ErrInvalidRequest)
			return
		}
		server = &doc.Servers[*req.ServerIndex]
	}

	c.JSON(http.StatusOK, synth.BuildRequestDefaults(op, item, server, doc, s.opts.Synth))
}

func (s *Server) exportSpec(c *gin.Context) {
	conv, err := converters.New(c.DefaultQuery("format", "curl"))
	if err != nil {
		s.fail(c, err)
		return
	}

	doc, err := s.specs.Load(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := conv.Convert(synth.BuildCollection(doc, s.opts.Synth), &buf); err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, contentTypes[conv.Format()], buf.Bytes())
}

var contentTypes = map[string]string{
	"pdf":        "application/pdf",
	"docx":       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"confluence": "application/json",
	"curl":       "text/x-shellscript; charset=utf-8",
}

func (s *Server) serialize(c *gin.Context) {
	var model domain.RequestModel
	if err := c.ShouldBindJSON(&model); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, synth.Serialize(model))
}

func (s *Server) executeRequest(c *gin.Context) {
	var req domain.RequestDescriptor
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	resp, err := s.executor.Execute(c, req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type fetchSpecRequest struct {
	URL string `json:"url" binding:"required"`
	ID  string `json:"id"`
}

type fetchSpecResponse struct {
	Content string `json:"content"`
	ID      string `json:"id,omitempty"`
}

func (s *Server) fetchSpec(c *gin.Context) {
	var req fetchSpecRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	content, err := s.specs.Fetch(c, req.URL, req.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fetchSpecResponse{Content: content, ID: req.ID})
}
