// Copyright 2021 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/gorse-io/cinerank/base/log"
	"github.com/gorse-io/cinerank/common/parallel"
	"github.com/gorse-io/cinerank/config"
	"github.com/gorse-io/cinerank/recommend"
	"github.com/gorse-io/cinerank/storage"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/emicklei/go-restful/otelrestful"
	"go.uber.org/zap"
)

const (
	apiDocsPath     = "/apidocs.json"
	shutdownTimeout = 10 * time.Second
	// defaultPageSize is the number of users in a page.
	defaultPageSize = 50
)

// RestServer implements a REST-ful API server.
type RestServer struct {
	Service    *recommend.Service
	Config     *config.Config
	WebService *restful.WebService
	limiter    parallel.RateLimiter
}

// NewRestServer creates a REST-ful API server on a recommendation service.
func NewRestServer(cfg *config.Config, service *recommend.Service) *RestServer {
	return &RestServer{
		Service:    service,
		Config:     cfg,
		WebService: new(restful.WebService),
		limiter:    parallel.NewRateLimiter(cfg.Server.RateLimit),
	}
}

// Handler builds the HTTP handler serving the API, the API docs and metrics.
func (s *RestServer) Handler() http.Handler {
	s.CreateWebService()
	container := restful.NewContainer()
	container.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     apiDocsPath,
	}
	container.Add(restfulspec.NewOpenAPIService(specConfig))
	container.Handle("/apidocs/", v5emb.New("cinerank", apiDocsPath, "/apidocs/"))
	container.Handle("/metrics", promhttp.Handler())
	return container
}

// Serve runs the REST-ful API server until ctx is done, then shuts it down gracefully.
func (s *RestServer) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	errs := make(chan error, 1)
	go func() {
		log.Logger().Info("start http server", zap.String("url", "http://"+addr))
		errs <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return errors.Trace(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Trace(httpServer.Shutdown(shutdownCtx))
	}
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	requestId := req.HeaderParameter("X-Request-ID")
	if requestId == "" {
		requestId = uuid.New().String()
	}
	resp.Header().Set("X-Request-ID", requestId)
	start := time.Now()
	chain.ProcessFilter(req, resp)
	route := req.SelectedRoutePath()
	RequestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode())).Inc()
	RequestSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	if req.Request.URL.Path != "/api/health" {
		log.ResponseLogger(resp).Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("used_time", time.Since(start)))
	}
}

func (s *RestServer) rateLimitFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	if s.limiter.TakeAvailable(1) == 0 {
		TooManyRequests(resp, errors.New("too many requests"))
		return
	}
	chain.ProcessFilter(req, resp)
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(otelrestful.OTelFilter("cinerank"))
	ws.Filter(LogFilter)
	ws.Filter(s.rateLimitFilter)

	ws.Route(ws.GET("/recommend/{user-id}").To(s.getRecommend).
		Doc("Get recommendation for a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("integer")).
		Returns(http.StatusOK, "OK", []recommend.Recommendation{}).
		Writes([]recommend.Recommendation{}))
	ws.Route(ws.GET("/top-rated/{user-id}").To(s.getTopRated).
		Doc("Get items rated highest by a user.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommendation"}).
		Param(ws.PathParameter("user-id", "identifier of the user").DataType("string")).
		Param(ws.QueryParameter("n", "number of returned items").DataType("integer")).
		Returns(http.StatusOK, "OK", []recommend.Recommendation{}).
		Writes([]recommend.Recommendation{}))
	ws.Route(ws.GET("/users").To(s.getUsers).
		Doc("Get users with latent factors.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"user"}).
		Param(ws.QueryParameter("offset", "offset of the first user").DataType("integer")).
		Param(ws.QueryParameter("n", "number of returned users").DataType("integer")).
		Returns(http.StatusOK, "OK", []string{}).
		Writes([]string{}))
	ws.Route(ws.POST("/reload").To(s.reload).
		Doc("Reload item factors and users.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"admin"}).
		Returns(http.StatusOK, "OK", ReloadResult{}).
		Writes(ReloadResult{}))
	ws.Route(ws.DELETE("/cache/items").To(s.invalidateItems).
		Doc("Invalidate cached metadata of all items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"admin"}).
		Returns(http.StatusOK, "OK", Success{}).
		Writes(Success{}))
	ws.Route(ws.DELETE("/cache/item/{item-id}").To(s.invalidateItem).
		Doc("Invalidate cached metadata of an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"admin"}).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("string")).
		Returns(http.StatusOK, "OK", Success{}).
		Writes(Success{}))
	ws.Route(ws.GET("/health").To(s.health).
		Doc("Check whether all stores are reachable.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "OK", HealthStatus{}).
		Writes(HealthStatus{}))
}

// ParseInt parses integers from the query parameter.
func ParseInt(request *restful.Request, name string, fallback int) (value int, err error) {
	valueString := request.QueryParameter(name)
	value, err = strconv.Atoi(valueString)
	if err != nil && valueString == "" {
		value = fallback
		err = nil
	}
	return
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	userId := request.PathParameter("user-id")
	n, err := ParseInt(request, "n", 0)
	if err != nil {
		BadRequest(response, err)
		return
	}
	recommendations, err := s.Service.Recommend(request.Request.Context(), userId, n)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, recommendations)
}

func (s *RestServer) getTopRated(request *restful.Request, response *restful.Response) {
	userId := request.PathParameter("user-id")
	n, err := ParseInt(request, "n", 0)
	if err != nil {
		BadRequest(response, err)
		return
	}
	recommendations, err := s.Service.TopRated(request.Request.Context(), userId, n)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, recommendations)
}

func (s *RestServer) getUsers(request *restful.Request, response *restful.Response) {
	offset, err := ParseInt(request, "offset", 0)
	if err != nil {
		BadRequest(response, err)
		return
	}
	n, err := ParseInt(request, "n", defaultPageSize)
	if err != nil {
		BadRequest(response, err)
		return
	}
	userIds, err := s.Service.Users(request.Request.Context(), offset, n)
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, userIds)
}

type ReloadResult struct {
	NumItems int
	NumUsers int
}

func (s *RestServer) reload(request *restful.Request, response *restful.Response) {
	snapshot, err := s.Service.Reload(request.Request.Context())
	if err != nil {
		Error(response, err)
		return
	}
	Ok(response, ReloadResult{
		NumItems: snapshot.NumItems(),
		NumUsers: snapshot.NumUsers(),
	})
}

type Success struct {
	RowAffected int
}

func (s *RestServer) invalidateItems(_ *restful.Request, response *restful.Response) {
	s.Service.InvalidateItems()
	Ok(response, Success{})
}

func (s *RestServer) invalidateItem(request *restful.Request, response *restful.Response) {
	s.Service.InvalidateItem(request.PathParameter("item-id"))
	Ok(response, Success{RowAffected: 1})
}

type HealthStatus struct {
	Ready bool
	Error string `json:",omitempty"`
}

func (s *RestServer) health(request *restful.Request, response *restful.Response) {
	if err := s.Service.Ping(request.Request.Context()); err != nil {
		response.Header().Set("Access-Control-Allow-Origin", "*")
		if err = response.WriteHeaderAndJson(http.StatusServiceUnavailable, HealthStatus{Error: err.Error()}, restful.MIME_JSON); err != nil {
			log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
		}
		return
	}
	Ok(response, HealthStatus{Ready: true})
}

// Error writes an error with the status code matching its kind.
func Error(response *restful.Response, err error) {
	switch {
	case errors.Is(err, storage.ErrCorrupted):
		InternalServerError(response, err)
	case errors.Is(err, errors.NotFound):
		PageNotFound(response, err)
	case errors.Is(err, errors.NotValid):
		BadRequest(response, err)
	case storage.IsUnavailable(err):
		ServiceUnavailable(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// ServiceUnavailable returns a service unavailable error.
func ServiceUnavailable(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("service unavailable", zap.Error(err))
	if err = response.WriteError(http.StatusServiceUnavailable, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// TooManyRequests returns a too many requests error.
func TooManyRequests(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err = response.WriteError(http.StatusTooManyRequests, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.ResponseLogger(response).Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content any) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.ResponseLogger(response).Error("failed to write json", zap.Error(err))
	}
}
