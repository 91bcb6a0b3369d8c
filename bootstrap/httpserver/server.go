// Copyright 2019 the supplychain-go authors
// This file is part of the supplychain-go library in the Supplychain project.
//
// This source code is licensed under the MIT license found in the LICENSE file in the root directory of this source tree.
// The above notice should be included in all copies or substantial portions of the software.

package httpserver

import (
	"context"
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/orbs-network/govnr"
	"github.com/orbs-network/scribe/log"
	"github.com/pkg/errors"
	"github.com/supplychain-dapp/supplychain-go/config"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/logfields"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/metric"
	"github.com/supplychain-dapp/supplychain-go/instrumentation/trace"
	"github.com/supplychain-dapp/supplychain-go/services/ledger/adapter"
	"github.com/supplychain-dapp/supplychain-go/services/registry"
	"golang.org/x/net/netutil"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/pprof"
	"time"
)

var LogTag = log.String("adapter", "http-server")

const maxRequestBodyBytes = 64 * 1024

type httpErr struct {
	code     int
	logField *log.Field
	message  string
}

// Session is what the server needs from a registry session
type Session interface {
	Snapshot() *registry.Snapshot
	Subscribe(buffer int) (<-chan *registry.Snapshot, func())
	Reload(ctx context.Context) (*registry.Snapshot, error)
	History(ctx context.Context, id uint64) ([]*registry.FormattedHistoryEntry, error)
	RegisterProduct(ctx context.Context, request *registry.RegisterProductRequest) (*adapter.Receipt, error)
	Transfer(ctx context.Context, request *registry.TransferRequest) (*adapter.Receipt, error)
	Receive(ctx context.Context, request *registry.ReceiveRequest) (*adapter.Receipt, error)
	RegisterUser(ctx context.Context, request *registry.RegisterUserRequest) (*adapter.Receipt, error)
}

type HttpServer struct {
	govnr.TreeSupervisor
	httpServer     *http.Server
	logger         log.Logger
	session        Session
	metricRegistry metric.Registry
	config         config.HttpServerConfig
	feed           *snapshotFeed

	port int
}

type serveTracker struct {
	done chan struct{}
}

func (t *serveTracker) WaitUntilShutdown(shutdownCtx context.Context) {
	select {
	case <-t.done:
	case <-shutdownCtx.Done():
	}
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	err = tc.SetKeepAlive(true)
	if err != nil {
		return nil, err
	}
	err = tc.SetKeepAlivePeriod(35 * time.Second)
	if err != nil {
		return nil, err
	}
	return tc, nil
}

func NewHttpServer(ctx context.Context, cfg config.HttpServerConfig, logger log.Logger, session Session, metricRegistry metric.Registry) (*HttpServer, error) {
	server := &HttpServer{
		logger:         logger.WithTags(LogTag),
		session:        session,
		metricRegistry: metricRegistry,
		config:         cfg,
	}
	server.feed = newSnapshotFeed(ctx, session, server.logger, metricRegistry)
	server.Supervise(server.feed)

	listener, err := server.listen(server.config.HttpAddress())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start http server on %s", server.config.HttpAddress())
	}

	server.port = listener.Addr().(*net.TCPAddr).Port
	server.httpServer = &http.Server{
		Handler: server.createRouter(),
	}

	// We prefer not to use `HttpServer.ListenAndServe` because we want to block until the socket is listening or exit immediately
	serving := &serveTracker{done: make(chan struct{})}
	server.Supervise(serving)
	govnr.Once(logfields.GovnrErrorer(server.logger), func() {
		defer close(serving.done)
		if err := server.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			server.logger.Error("http server stopped serving", log.Error(err))
		}
	})

	server.logger.Info("started http server", log.String("address", server.config.HttpAddress()), log.Int("port", server.port))

	return server, nil
}

func (s *HttpServer) Port() int {
	return s.port
}

func (s *HttpServer) listen(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	var keepAlive net.Listener = tcpKeepAliveListener{listener.(*net.TCPListener)}
	if max := s.config.HttpMaxConnections(); max > 0 {
		return netutil.LimitListener(keepAlive, int(max)), nil
	}
	return keepAlive, nil
}

func (s *HttpServer) GracefulShutdown(shutdownContext context.Context) {
	s.feed.close()
	if err := s.httpServer.Shutdown(shutdownContext); err != nil {
		s.logger.Error("failed to stop http server gracefully", log.Error(err))
	}
}

func (s *HttpServer) createRouter() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session", wrapHandlerWithCORS(s.sessionHandler)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/status-labels", wrapHandlerWithCORS(s.statusLabelsHandler)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/products", wrapHandlerWithCORS(s.productsHandler)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/products", wrapHandlerWithCORS(s.registerProductHandler)).Methods(http.MethodPost)
	api.HandleFunc("/products/reload", wrapHandlerWithCORS(s.reloadHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/products/{id:[0-9]+}/history", wrapHandlerWithCORS(s.historyHandler)).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/products/{id:[0-9]+}/transfer", wrapHandlerWithCORS(s.transferHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/products/{id:[0-9]+}/receive", wrapHandlerWithCORS(s.receiveHandler)).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/users", wrapHandlerWithCORS(s.registerUserHandler)).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/ws", s.feed.serveWebsocket).Methods(http.MethodGet)
	router.HandleFunc("/status", wrapHandlerWithCORS(s.getStatus)).Methods(http.MethodGet)
	router.HandleFunc("/metrics", wrapHandlerWithCORS(s.dumpMetrics)).Methods(http.MethodGet)
	router.HandleFunc("/metrics.prometheus", s.dumpPrometheusMetrics).Methods(http.MethodGet)
	router.HandleFunc("/robots.txt", s.robots)

	if s.config.Profiling() {
		registerPprof(router)
	}

	router.Use(s.traceRequests)

	return router
}

func (s *HttpServer) traceRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := trace.NewFromRequest(r.Context(), r)
		if tracingContext, ok := trace.FromContext(ctx); ok {
			tracingContext.WriteTraceToResponse(w)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func readInput(r *http.Request, into interface{}) *httpErr {
	if r.Body == nil {
		return &httpErr{http.StatusBadRequest, nil, "http request body is empty"}
	}

	bytes, err := ioutil.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return &httpErr{http.StatusBadRequest, log.Error(err), "http request body could not be read"}
	}

	if len(bytes) == 0 {
		return &httpErr{http.StatusBadRequest, nil, "http request body is empty"}
	}

	if err := json.Unmarshal(bytes, into); err != nil {
		return &httpErr{http.StatusBadRequest, log.Error(err), "http request body is not valid json"}
	}

	return nil
}

// translateErrorToHttpCode maps the registry error taxonomy to status codes
func translateErrorToHttpCode(err error) int {
	if _, ok := registry.IsValidationError(err); ok {
		return http.StatusBadRequest
	}
	if registry.IsUnsupportedRole(err) {
		return http.StatusForbidden
	}
	if _, ok := adapter.IsRejected(err); ok {
		return http.StatusConflict
	}
	if adapter.IsNoSigner(err) {
		return http.StatusServiceUnavailable
	}
	if _, ok := adapter.IsUnconfirmed(err); ok {
		return http.StatusGatewayTimeout
	}
	if errors.Cause(err) == context.Canceled || errors.Cause(err) == context.DeadlineExceeded {
		return http.StatusGatewayTimeout
	}
	return http.StatusServiceUnavailable
}

func errorMessage(err error) string {
	if rejected, ok := adapter.IsRejected(err); ok {
		return rejected.Reason
	}
	if validationError, ok := registry.IsValidationError(err); ok {
		return validationError.Error()
	}
	if adapter.IsNoSigner(err) {
		return "no wallet connected, connect a signer to perform this action"
	}
	return errors.Cause(err).Error()
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HttpServer) writeJsonResponse(w http.ResponseWriter, code int, body interface{}) {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		s.writeErrorResponseAndLog(w, &httpErr{http.StatusInternalServerError, log.Error(err), "failed encoding response"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		s.logger.Info("error writing response", log.Error(err))
	}
}

func (s *HttpServer) writeErrorResponseAndLog(w http.ResponseWriter, m *httpErr) {
	if m.logField == nil {
		s.logger.Info(m.message)
	} else {
		s.logger.Info(m.message, m.logField)
	}

	s.writeErrorResponse(w, m.code, m.message)
}

func (s *HttpServer) writeErrorResponse(w http.ResponseWriter, code int, message string) {
	data, _ := json.Marshal(errorResponse{Error: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		s.logger.Info("error writing response", log.Error(err))
	}
}

func (s *HttpServer) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Info("request failed", trace.LogFieldFrom(r.Context()), log.Error(err))
	s.writeErrorResponse(w, translateErrorToHttpCode(err), errorMessage(err))
}

func (s *HttpServer) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, err := w.Write([]byte("User-agent: *\nDisallow: /\n"))
	if err != nil {
		s.logger.Info("error writing robots.txt response", log.Error(err))
	}
}

func registerPprof(router *mux.Router) {
	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
}

// Allows handler to be called via XHR requests from any host
func wrapHandlerWithCORS(f func(w http.ResponseWriter, r *http.Request)) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
		} else {
			f(w, r)
		}
	}
}
