package server

import (
	nethttp "net/http"

	"moviecatalog/internal/biz"
	"moviecatalog/internal/conf"
	"moviecatalog/internal/service"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// NewErrorEncoder passes domain errors through and hides anything else
// behind a generic internal error.
func NewErrorEncoder(logger log.Logger) khttp.EncodeErrorFunc {
	l := log.NewHelper(logger)
	return func(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
		se := errors.FromError(err)
		if se.Reason == errors.UnknownReason {
			l.WithContext(r.Context()).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
			se = errors.InternalServer("INTERNAL_ERROR", "internal server error")
		} else if se.Code >= nethttp.StatusInternalServerError {
			l.WithContext(r.Context()).Warnf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		khttp.DefaultErrorEncoder(w, r, se)
	}
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	tokens *biz.TokenIssuer,
	movieSvc *service.MovieService,
	userSvc *service.UserService,
	searchSvc *service.SearchService,
	logger log.Logger,
) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			RequestIDMiddleware(),
			logging.Server(logger),
			AuthMiddleware(tokens),
		),
		khttp.ErrorEncoder(NewErrorEncoder(logger)),
	}
	if c.Http != nil {
		if c.Http.Network != "" {
			opts = append(opts, khttp.Network(c.Http.Network))
		}
		if c.Http.Addr != "" {
			opts = append(opts, khttp.Address(c.Http.Addr))
		}
		if c.Http.Timeout != nil {
			opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
		}
	}
	srv := khttp.NewServer(opts...)
	service.RegisterMovieServiceHTTPServer(srv, movieSvc)
	service.RegisterUserServiceHTTPServer(srv, userSvc)
	service.RegisterSearchServiceHTTPServer(srv, searchSvc)
	return srv
}
