package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/baystate-gis/parcel-audit/internal/analysis"
	"github.com/baystate-gis/parcel-audit/internal/config"
	"github.com/baystate-gis/parcel-audit/internal/export"
	"github.com/baystate-gis/parcel-audit/internal/refcodes"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload and progress server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}
		port := cfg.Server.Port

		for _, dir := range []string{cfg.Server.UploadDir, cfg.Server.ResultsDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrapf(err, "create %s", dir)
			}
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newAuditServer(cfg).routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// auditServer holds the serve command's shared state: config and the
// pollable progress tracker.
type auditServer struct {
	cfg     *config.Config
	tracker *analysis.Tracker
}

func newAuditServer(cfg *config.Config) *auditServer {
	return &auditServer{cfg: cfg, tracker: analysis.NewTracker()}
}

func (s *auditServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/progress", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.tracker.Snapshot())
	})
	r.Post("/upload", s.handleUpload)
	r.Get("/download/{name}", s.handleDownloadSuggestions)
	r.Get("/download-raw/{name}", s.handleDownloadFile)
	r.Get("/download-cleaned/{name}", s.handleDownloadFile)

	return r
}

// handleUpload accepts a zipped delivery, runs the audit synchronously, and
// responds with the results document. The frontend polls /progress while
// this request is in flight.
func (s *auditServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close() //nolint:errcheck

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		writeError(w, http.StatusBadRequest, "Please upload a .zip file")
		return
	}

	runID := uuid.NewString()
	zipPath := filepath.Join(s.cfg.Server.UploadDir, fmt.Sprintf("upload_%s.zip", runID))
	if err := saveUpload(file, zipPath); err != nil {
		zap.L().Error("serve: save upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error saving upload")
		return
	}
	defer os.Remove(zipPath) //nolint:errcheck

	tempDir, err := os.MkdirTemp("", "parcel-audit-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating workspace")
		return
	}
	defer os.RemoveAll(tempDir) //nolint:errcheck

	ds, err := shapeds.OpenZip(zipPath, tempDir)
	if err != nil {
		zap.L().Error("serve: open delivery failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Error processing archive: %v", err))
		return
	}

	codes := refcodes.Load(s.cfg.Codes.Path)
	analyzer := analysis.New(analysis.Options{
		BufferRadius:   s.cfg.Analysis.BufferRadius,
		HighConfidence: s.cfg.Analysis.HighConfidence,
		Workers:        s.cfg.Analysis.Workers,
	}, s.tracker)

	res, err := analyzer.Run(r.Context(), ds, codes)
	if err != nil {
		zap.L().Error("serve: analysis failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Error processing file: %v", err))
		return
	}

	files, err := writeResultFiles(s.cfg.Server.ResultsDir, runID, res)
	if err != nil {
		zap.L().Error("serve: write results failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error writing results")
		return
	}
	zap.L().Info("serve: run complete",
		zap.String("run_id", runID),
		zap.Strings("files", files),
	)

	doc := export.NewDocument(res)
	doc.RawDataFile = fmt.Sprintf("raw_data_%s.csv", runID)
	doc.CleanedDataFile = fmt.Sprintf("cleaned_usecodes_%s.csv", runID)
	doc.ResultsFile = fmt.Sprintf("results_%s.json", runID)
	writeJSON(w, http.StatusOK, doc)
}

// handleDownloadSuggestions renders a stored results document as the
// reviewer-facing suggestions CSV.
func (s *auditServer) handleDownloadSuggestions(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	path := filepath.Join(s.cfg.Server.ResultsDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "Results file not found")
		return
	}

	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		writeError(w, http.StatusInternalServerError, "Results file unreadable")
		return
	}

	csvName := strings.TrimSuffix(name, ".json") + ".csv"
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", csvName))
	if err := export.WriteSuggestionsCSV(w, doc.Properties); err != nil {
		zap.L().Error("serve: stream suggestions csv failed", zap.Error(err))
	}
}

// handleDownloadFile serves a stored raw or cleaned CSV as an attachment.
func (s *auditServer) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	path := filepath.Join(s.cfg.Server.ResultsDir, name)

	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func saveUpload(src io.Reader, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "create upload file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, src); err != nil {
		return eris.Wrap(err, "write upload file")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
