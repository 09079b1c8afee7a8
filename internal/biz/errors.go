package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
)

// Domain errors. Compare with errors.Is, which matches on code and reason.
var (
	ErrMovieNotFound   = errors.NotFound("MOVIE_NOT_FOUND", "movie not found")
	ErrUserNotFound    = errors.NotFound("USER_NOT_FOUND", "user not found")
	ErrCommentNotFound = errors.NotFound("COMMENT_NOT_FOUND", "comment not found")
	ErrGenreNotFound   = errors.NotFound("GENRE_NOT_FOUND", "genre not found")
	ErrPersonNotFound  = errors.NotFound("PERSON_NOT_FOUND", "person not found")

	// ErrCatalogNotFound is returned by the catalog client when the provider
	// has no record for the requested id.
	ErrCatalogNotFound = errors.NotFound("CATALOG_NOT_FOUND", "not found in the external catalog")

	ErrUsernameTaken = errors.Conflict("USERNAME_TAKEN", "username already exists")
	ErrMovieExists   = errors.Conflict("MOVIE_EXISTS", "movie already materialized")

	ErrNotCommentAuthor = errors.Forbidden("NOT_COMMENT_AUTHOR", "you can only delete your own comments")

	ErrInvalidArgument    = errors.BadRequest("INVALID_ARGUMENT", "invalid argument")
	ErrInvalidCredentials = errors.Unauthorized("INVALID_CREDENTIALS", "invalid username or password")
	ErrInvalidToken       = errors.Unauthorized("INVALID_TOKEN", "invalid token")

	ErrUpstreamUnavailable = errors.ServiceUnavailable("UPSTREAM_UNAVAILABLE", "external catalog unavailable")

	ErrRequestCanceled = errors.ClientClosed("REQUEST_CANCELED", "request canceled before the movie was ready")
)

// invalidArgument builds an INVALID_ARGUMENT error with a caller-facing message.
func invalidArgument(format string, args ...interface{}) error {
	return errors.Errorf(int(ErrInvalidArgument.Code), ErrInvalidArgument.Reason, format, args...)
}
