package service

import (
	"context"
	"strings"

	"moviecatalog/internal/biz"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-playground/validator/v10"
	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewMovieService, NewUserService, NewSearchService)

// Operation names, used by the server to decide which routes need a token.
const (
	OperationGetMovie          = "/moviecatalog.v1.MovieService/GetMovie"
	OperationAddComment        = "/moviecatalog.v1.MovieService/AddComment"
	OperationDeleteComment     = "/moviecatalog.v1.MovieService/DeleteComment"
	OperationChangeLikedStatus = "/moviecatalog.v1.MovieService/ChangeLikedStatus"
	OperationIsLiked           = "/moviecatalog.v1.MovieService/IsLiked"
	OperationVote              = "/moviecatalog.v1.MovieService/Vote"
	OperationTopRated          = "/moviecatalog.v1.MovieService/TopRated"
	OperationMostVoted         = "/moviecatalog.v1.MovieService/MostVoted"
	OperationSearchMovies      = "/moviecatalog.v1.SearchService/SearchMovies"
	OperationSearchPeople      = "/moviecatalog.v1.SearchService/SearchPeople"
	OperationSignup            = "/moviecatalog.v1.UserService/Signup"
	OperationLogin             = "/moviecatalog.v1.UserService/Login"
	OperationVerify            = "/moviecatalog.v1.UserService/Verify"
	OperationProfile           = "/moviecatalog.v1.UserService/Profile"
	OperationUpdateUsername    = "/moviecatalog.v1.UserService/UpdateUsername"
	OperationHealthCheck       = "/moviecatalog.v1.UserService/HealthCheck"
)

// PublicOperations can be called without a bearer token.
var PublicOperations = map[string]bool{
	OperationGetMovie:     true,
	OperationTopRated:     true,
	OperationMostVoted:    true,
	OperationSearchMovies: true,
	OperationSearchPeople: true,
	OperationSignup:       true,
	OperationLogin:        true,
	OperationHealthCheck:  true,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// bind decodes the body, query and path variables into in, in that order,
// and validates the result.
func bind(ctx khttp.Context, in interface{}, body bool) error {
	if body {
		if err := ctx.Bind(in); err != nil {
			return errors.BadRequest("INVALID_ARGUMENT", "malformed request body").WithCause(err)
		}
	}
	if err := ctx.BindQuery(in); err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "malformed query").WithCause(err)
	}
	if err := ctx.BindVars(in); err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "malformed path").WithCause(err)
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.BadRequest("INVALID_ARGUMENT", fe.Field()+" failed "+fe.Tag()+" validation")
		}
		return errors.BadRequest("INVALID_ARGUMENT", err.Error())
	}
	return nil
}

// route adapts a typed handler to a kratos route, running it through the
// server middleware chain under the given operation name.
func route[Req any, Reply any](op string, body bool, status int, fn func(context.Context, *Req) (*Reply, error)) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		if err := bind(ctx, &in, body); err != nil {
			return err
		}
		khttp.SetOperation(ctx, op)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(status, out.(*Reply))
	}
}

// currentUser returns the claims of the verified bearer token.
func currentUser(ctx context.Context) (*biz.Claims, error) {
	claims, ok := jwt.FromContext(ctx)
	if !ok {
		return nil, biz.ErrInvalidToken
	}
	c, ok := claims.(*biz.Claims)
	if !ok || c.UserID <= 0 {
		return nil, biz.ErrInvalidToken
	}
	return c, nil
}

// bearerToken returns the raw token from the Authorization header.
func bearerToken(ctx context.Context) string {
	tr, ok := transport.FromServerContext(ctx)
	if !ok {
		return ""
	}
	return strings.TrimPrefix(tr.RequestHeader().Get("Authorization"), "Bearer ")
}
