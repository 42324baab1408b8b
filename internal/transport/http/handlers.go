package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fedutinova/mcqgen/internal/common"
	"github.com/fedutinova/mcqgen/internal/config"
	"github.com/fedutinova/mcqgen/internal/mcqgen"
	"github.com/fedutinova/mcqgen/internal/storage"
	"github.com/fedutinova/mcqgen/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// multipart boundaries and headers on top of the file itself
const formOverhead = 1 << 20

type Upstream interface {
	Configured() bool
}

type Handlers struct {
	Service  *mcqgen.Service
	Results  storage.Storage
	Upstream Upstream
	Config   config.Config
}

func (h *Handlers) Routers(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Get("/download/{filename}", h.download)
	r.Get(h.Config.ResultsURL+"/*", h.serveResults)

	r.Group(func(r chi.Router) {
		if h.Config.GenerateRateLimit > 0 {
			r.Use(httprate.LimitByIP(h.Config.GenerateRateLimit, time.Minute))
		}
		r.Post("/generate", h.generate)
	})
}

// generate streams the multipart body: the file part goes straight to the
// staging area and is never buffered whole in memory.
func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadSize+formOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, common.BadRequest("Expected a multipart/form-data request.", err))
		return
	}

	var (
		staged       *storage.StagedFile
		numQuestions int
		haveCount    bool
	)
	defer func() {
		if staged != nil {
			staged.Remove()
		}
	}()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, r, formError(err))
			return
		}

		switch part.FormName() {
		case "file":
			if staged != nil {
				part.Close()
				continue
			}
			staged, err = h.Service.Stage(part.FileName(), part)
			part.Close()
			if err != nil {
				writeError(w, r, err)
				return
			}

		case "num_questions":
			numQuestions, err = readCount(part)
			part.Close()
			if err != nil {
				writeError(w, r, err)
				return
			}
			if errs := validation.ValidateNumQuestions(numQuestions); len(errs) > 0 {
				writeError(w, r, errs)
				return
			}
			haveCount = true

		default:
			part.Close()
		}
	}

	if staged == nil {
		writeError(w, r, common.BadRequest("No file uploaded.", nil))
		return
	}
	if !haveCount {
		writeError(w, r, common.BadRequest("num_questions is required.", nil))
		return
	}

	slog.Info("upload received",
		"filename", staged.OriginalName,
		"size", staged.Size,
		"num_questions", numQuestions,
		"request_id", middleware.GetReqID(r.Context()))

	res, err := h.Service.Process(r.Context(), staged, numQuestions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func readCount(part *multipart.Part) (int, error) {
	raw, err := io.ReadAll(io.LimitReader(part, 64))
	if err != nil {
		return 0, formError(err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, common.ValidationError{Field: "num_questions", Message: "num_questions must be an integer"}
	}
	return n, nil
}

func formError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return common.PayloadTooLarge("Request body too large.")
	}
	return common.BadRequest("Malformed multipart form.", err)
}

// artifactName reads a route parameter as a bare file name. chi routes on
// RawPath when the client's escaping differs from the default one, and the
// parameter is still encoded in that case.
func artifactName(r *http.Request, key string) (string, bool) {
	name := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		var err error
		if name, err = url.PathUnescape(name); err != nil {
			return "", false
		}
	}
	return name, name != ""
}

func (h *Handlers) download(w http.ResponseWriter, r *http.Request) {
	name, ok := artifactName(r, "filename")
	if !ok {
		writeDetail(w, http.StatusNotFound, "File not found")
		return
	}

	f, err := h.Results.GetFile(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.Content.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	http.ServeContent(w, r, f.Name, f.ModTime, f.Content)
}

// serveResults exposes the results directory under the results URL prefix.
func (h *Handlers) serveResults(w http.ResponseWriter, r *http.Request) {
	name, ok := artifactName(r, "*")
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	f, err := h.Results.GetFile(r.Context(), name)
	if err != nil {
		if common.IsNotFound(err) {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		writeError(w, r, err)
		return
	}
	defer f.Content.Close()

	w.Header().Set("Content-Type", f.ContentType)
	http.ServeContent(w, r, f.Name, f.ModTime, f.Content)
}
