package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
)

// maxUploadBytes caps multipart request parsing. Video files stream to the
// media host, so only this much is buffered in memory at once.
const maxUploadBytes = 32 << 20

// principal returns the authenticated user or an unauthorized error. The auth
// middleware guards every route that calls this, so a miss means a wiring bug
// rather than a client mistake, but 401 is still the right answer.
func principal(ctx context.Context) (models.User, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return models.User{}, unauthorized("authentication required")
	}
	return user, nil
}

// pathID parses the named path segment as an ObjectID.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.PathValue(name))
	if err != nil {
		return primitive.NilObjectID, badRequest("invalid " + name)
	}
	return id, nil
}

func pageRequest(r *http.Request) pipeline.PageRequest {
	q := r.URL.Query()
	return pipeline.ParsePageRequest(q.Get("page"), q.Get("limit"))
}

// formFile opens the named multipart file. A missing optional file returns
// (nil, "", nil).
func formFile(r *http.Request, name string, required bool) (multipart.File, string, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		if required {
			return nil, "", badRequest(name + " file is required")
		}
		return nil, "", nil
	}
	return file, header.Filename, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
