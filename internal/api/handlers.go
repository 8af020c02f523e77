package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"label-cabinet/backstage/internal/auth"
	"label-cabinet/backstage/internal/common"
	"label-cabinet/backstage/internal/constants"
	"label-cabinet/backstage/internal/services"
	"label-cabinet/backstage/internal/storage"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 11 << 20 // largest bucket limit plus multipart overhead
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return constants.Invalid("%s", constants.MsgInvalidBody)
	}
	return nil
}

// actorOf maps the request principal to a ticket actor.
func actorOf(claims auth.UserClaims) services.Actor {
	return services.Actor{UserID: claims.UserID(), Staff: claims.IsStaff()}
}

// readUpload reads the multipart "file" field, bounded to the bucket limit.
func readUpload(w http.ResponseWriter, r *http.Request, bucket string) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, err
		}
		return "", nil, constants.Invalid("expected multipart form with a file field")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, constants.Invalid("missing file field")
	}
	defer file.Close()

	limit := int64(maxUploadBody)
	if policy, ok := storage.PolicyFor(bucket); ok {
		limit = policy.MaxSize
	}

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", nil, constants.Invalid("file exceeds %d bytes", limit)
	}
	return header.Filename, data, nil
}

// withClaims resolves the principal or answers 401.
func withClaims(fn func(w http.ResponseWriter, r *http.Request, claims auth.UserClaims, initTime time.Time)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			common.RespondError(w, initTime, nil, constants.MsgUnauthorized, http.StatusUnauthorized)
			return
		}
		fn(w, r, claims, initTime)
	}
}

// respond writes data on success or maps err to its status.
func respond(w http.ResponseWriter, initTime time.Time, message string, data any, err error, statusCode ...int) {
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.RespondError(w, initTime, nil, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		common.RespondServiceError(w, initTime, err)
		return
	}
	common.RespondSuccess(w, initTime, message, data, statusCode...)
}

func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
