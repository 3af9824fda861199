package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/degreec/compile"
	"github.com/jsphweid/degreec/constants"
	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/playback"
	"github.com/jsphweid/degreec/sample"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var addr string

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default $DEGREEC_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the compiler over HTTP",
	Long: `Serves POST /compile, which turns {"source": "..."} into an audio/midi
response, POST /events for the playback feed, and GET /healthz.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr == "" {
			addr = constants.GetServeAddr()
		}
		return serve(cmd.Context(), addr)
	},
}

type requestIdKey struct{}

const requestIdHeader = "X-Request-Id"

func withRequestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIdHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIdKey{}, id)))
	})
}

func requestId(r *http.Request) string {
	if id, ok := r.Context().Value(requestIdKey{}).(string); ok {
		return id
	}
	return uuid.New().String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("could not write response: %v", err)
	}
}

// compileRequest decodes the body and compiles it. On failure it has already
// written the error response.
func compileRequest(w http.ResponseWriter, r *http.Request, id string) (*compile.Result, bool) {
	logger := log.WithField("request_id", id)

	reqBody, err := io.ReadAll(io.LimitReader(r.Body, constants.MaxSourceSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "could not read request body"})
		return nil, false
	}
	if len(reqBody) > constants.MaxSourceSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "source is too large"})
		return nil, false
	}

	var input model.CompileRequestBody
	if err := json.Unmarshal(reqBody, &input); err != nil {
		logger.Debugf("bad request body: %v", err)
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "could not unmarshal request body: " + err.Error()})
		return nil, false
	}

	res, err := compile.Compile(input.Source)
	switch {
	case errors.Is(err, compile.ErrSyntax):
		diags := make([]model.Diagnostic, len(res.Diagnostics))
		for i, d := range res.Diagnostics {
			diags[i] = model.Diagnostic{Line: d.Line, Column: d.Column, Offset: d.Offset, Message: d.Message}
		}
		logger.WithField("diagnostics", len(diags)).Info("rejected source")
		writeJSON(w, http.StatusUnprocessableEntity, model.CompileErrorResponse{RequestId: id, Diagnostics: diags})
		return nil, false
	case err != nil:
		logger.Infof("compile failed: %v", err)
		writeJSON(w, http.StatusUnprocessableEntity, model.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return res, true
}

// HandleCompile answers with the compiled file. The optional query parameters
// from (ticks) and notes limit the answer to a preview.
func HandleCompile(w http.ResponseWriter, r *http.Request) {
	id := requestId(r)
	res, ok := compileRequest(w, r, id)
	if !ok {
		return
	}
	logger := log.WithField("request_id", id)

	f := res.File
	query := r.URL.Query()
	if query.Has("from") || query.Has("notes") {
		from, err1 := strconv.ParseUint(query.Get("from"), 10, 32)
		notes, err2 := strconv.Atoi(query.Get("notes"))
		if (query.Has("from") && err1 != nil) || (query.Has("notes") && (err2 != nil || notes < 0)) {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "from and notes must be non-negative integers"})
			return
		}
		f = sample.Create(f, uint32(from), notes)
	}

	b, err := midi.Encode(f)
	if err != nil {
		logger.Errorf("could not encode: %v", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "could not encode midi file"})
		return
	}
	logger.WithField("bytes", len(b)).Info("compiled")
	w.Header().Set("Content-Type", "audio/midi")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HandleEvents answers with the playback feed of the source.
func HandleEvents(w http.ResponseWriter, r *http.Request) {
	id := requestId(r)
	res, ok := compileRequest(w, r, id)
	if !ok {
		return
	}
	tempo := res.BPM()
	if v := r.URL.Query().Get("bpm"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "bpm must be a positive number"})
			return
		}
		tempo = parsed
	}
	writeJSON(w, http.StatusOK, model.EventsResponse{
		RequestId: id,
		BPM:       tempo,
		Events:    toPlaybackEvents(playback.Messages(res.Events.Events, tempo)),
	})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(withRequestId)
	router.HandleFunc("/compile", HandleCompile).Methods("POST")
	router.HandleFunc("/events", HandleEvents).Methods("POST")
	router.HandleFunc("/healthz", HandleHealth).Methods("GET")
	return cors.Default().Handler(router)
}

func serve(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.WithField("addr", addr).Info("serving")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server failed")
	}
	return nil
}
