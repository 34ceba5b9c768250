package catalog

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"PluginStore/pkg/kit"
)

const (
	APIPrefix = "/plugin_store"

	healthMessage = "This is a health check"
	maxBodyBytes  = 1 << 20
)

type Server struct {
	Service *Service
	Log     *zap.Logger

	// WriteLimit, when set, wraps every mutating route.
	WriteLimit func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) { kit.WriteText(w, http.StatusOK, healthMessage) })
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route(APIPrefix, func(api chi.Router) {
		api.Get("/products", s.listProducts)
		api.Get("/products/{id}", s.getProduct)
		api.Get("/categories", s.listCategories)
		api.Get("/categories/{id}", s.getCategory)

		api.Group(func(wr chi.Router) {
			if s.WriteLimit != nil {
				wr.Use(s.WriteLimit)
			}
			wr.Post("/products", s.createProduct)
			wr.Patch("/products/{id}", s.updateProduct)
			wr.Delete("/products/{id}", s.deleteProduct)

			wr.Post("/categories", s.createCategory)
			wr.Patch("/categories/{id}", s.updateCategory)
			wr.Delete("/categories/{id}", s.deleteCategory)
		})
	})

	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Service.ListProducts(r.Context()))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	p, err := s.Service.GetProduct(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err, zap.Int("product_id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

// Mutating product routes answer with the whole product list.
func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if !s.decode(w, r, &in) {
		return
	}
	if _, err := s.Service.CreateProduct(r.Context(), in); err != nil {
		s.writeErr(w, r, err, zap.Int("category_id", in.CategoryID))
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Service.ListProducts(r.Context()))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var in ProductInput
	if !s.decode(w, r, &in) {
		return
	}
	if _, err := s.Service.UpdateProduct(r.Context(), id, in); err != nil {
		s.writeErr(w, r, err, zap.Int("product_id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Service.ListProducts(r.Context()))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	s.Service.DeleteProduct(r.Context(), id)
	kit.WriteJSON(w, http.StatusOK, s.Service.ListProducts(r.Context()))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Service.ListCategories(r.Context()))
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	c, err := s.Service.GetCategory(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err, zap.Int("category_id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, c)
}

// Mutating category routes answer with the whole category list.
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if !s.decode(w, r, &in) {
		return
	}
	if _, err := s.Service.CreateCategory(r.Context(), in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Service.ListCategories(r.Context()))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var in CategoryInput
	if !s.decode(w, r, &in) {
		return
	}
	if _, err := s.Service.UpdateCategory(r.Context(), id, in); err != nil {
		s.writeErr(w, r, err, zap.Int("category_id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Service.ListCategories(r.Context()))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	s.Service.DeleteCategory(r.Context(), id)
	kit.WriteJSON(w, http.StatusOK, s.Service.ListCategories(r.Context()))
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": "extra data after json object"})
		return false
	}
	return true
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error, fields ...zap.Field) {
	var syncErr *SyncError
	switch {
	case errors.As(err, &syncErr):
		if s.Log != nil {
			s.Log.Error("synchronization failed", append(fields, zap.Error(err))...)
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "failed to update category",
			map[string]any{"category_id": syncErr.CategoryID, "cause": syncErr.Err.Error()})
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, ErrInvalidInput):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		if s.Log != nil {
			s.Log.Error("request failed", append(fields, zap.Error(err))...)
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
