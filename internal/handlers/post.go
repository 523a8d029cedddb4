package handlers

import (
	"net/http"

	"github.com/crucial707/quill/internal/metrics"
	"github.com/crucial707/quill/internal/middleware"
	"github.com/crucial707/quill/internal/models"
	"github.com/crucial707/quill/internal/service"
	"github.com/go-chi/chi/v5"
)

type PostHandler struct {
	Service *service.PostService
}

//
// ==========================
// Create Post (protected)
// ==========================
//

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input service.CreatePostInput
	if !decodeJSON(w, r, &input) {
		return
	}

	post, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.IncPostMutation("create")
	writeJSON(w, http.StatusCreated, post)
}

//
// ==========================
// List Posts (search + user + page/limit)
// ==========================
//

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", service.DefaultPage)
	if !ok {
		JSONError(w, service.MsgInvalidPage, http.StatusBadRequest)
		return
	}
	limit, ok := queryInt(r, "limit", service.DefaultLimit)
	if !ok {
		JSONError(w, service.MsgInvalidLimit, http.StatusBadRequest)
		return
	}

	result, err := h.Service.List(r.Context(), service.ListParams{
		Search: r.URL.Query().Get("search"),
		UserID: r.URL.Query().Get("user"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

//
// ==========================
// Get Post By ID
// ==========================
//

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

//
// ==========================
// Update Post (protected, owner only)
// ==========================
//

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var patch models.PostPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	post, err := h.Service.Update(r.Context(), user, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	metrics.IncPostMutation("update")
	writeJSON(w, http.StatusOK, post)
}

//
// ==========================
// Delete Post (protected, owner only)
// ==========================
//

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Service.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}

	metrics.IncPostMutation("delete")
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted successfully"})
}
