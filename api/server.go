package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/simpleqa-bench/internal/history"
)

// Server exposes a finished or in-progress run directory over HTTP so
// results can be watched without tailing CSV files.
type Server struct {
	router  *gin.Engine
	runDir  string
	history *history.Store
}

func NewServer(runDir string, hist *history.Store) (*Server, error) {
	runDir = strings.TrimSpace(runDir)
	if runDir == "" {
		return nil, errors.New("api: missing run directory")
	}

	r := gin.New()
	s := &Server{
		router:  r,
		runDir:  runDir,
		history: hist,
	}
	s.registerMiddleware()
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
