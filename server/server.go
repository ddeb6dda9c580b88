// Package server lets the coordinator of a study list, download and check
// exported results files over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"ap-task/debug"
	"ap-task/export"
)

// Listing is one entry of GET /results
type Listing struct {
	export.ResultInfo
	Valid bool `json:"valid"`
}

type Server struct {
	Dir     string
	Origins []string
}

func New(dir string, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{Dir: dir, Origins: origins}
}

// Handler routes the results endpoints behind CORS
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/results", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/results/{name}", s.handleFile).Methods(http.MethodGet)
	router.HandleFunc("/results/{name}/verify", s.handleVerify).Methods(http.MethodGet)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.Origins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(router)
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		debug.Log("server", "listening on %s, results in %s", addr, s.Dir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fault.Wrap(err, fmsg.With("serve results"))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fault.Wrap(err, fmsg.With("shut down results server"))
		}
		return nil
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := export.ListResults(s.Dir)
	if err != nil {
		debug.Log("server", "list %s: %v", s.Dir, err)
		writeError(w, http.StatusInternalServerError, "could not list results")
		return
	}

	listing := make([]Listing, 0, len(infos))
	for _, info := range infos {
		report, err := s.verify(info.Filename)
		listing = append(listing, Listing{ResultInfo: info, Valid: err == nil && report.Valid})
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resultPath(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resultPath(w, r)
	if !ok {
		return
	}
	report, err := s.verify(filepath.Base(path))
	switch {
	case errors.Is(err, export.ErrNoDigest):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		debug.Log("server", "verify %s: %v", path, err)
		writeError(w, http.StatusInternalServerError, "could not read results file")
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

// resultPath resolves {name}, writing a 404 when it does not name a listed file
func (s *Server) resultPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := mux.Vars(r)["name"]
	path, ok := export.ResultPath(s.Dir, name)
	if ok {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			ok = false
		}
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no results file named "+name)
		return "", false
	}
	return path, true
}

func (s *Server) verify(filename string) (export.Report, error) {
	path, ok := export.ResultPath(s.Dir, filename)
	if !ok {
		return export.Report{}, os.ErrNotExist
	}
	f, err := os.Open(path)
	if err != nil {
		return export.Report{}, err
	}
	defer f.Close()
	return export.Verify(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Log("server", "encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
