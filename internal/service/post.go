package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/crucial707/quill/internal/apperr"
	"github.com/crucial707/quill/internal/models"
	"github.com/crucial707/quill/internal/repo"
	"github.com/google/uuid"
)

const (
	TitleMinLen   = 5
	TitleMaxLen   = 120
	ContentMinLen = 50

	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100
)

const (
	msgRequired     = "title and content are required"
	msgTitleLength  = "title must be 5-120 characters"
	msgContentShort = "content must be at least 50 characters"
	msgPostNotFound = "post not found"
	msgNotOwner     = "not authorized to modify this post"
)

// Pagination errors, shared with the HTTP layer for unparsable query values.
const (
	MsgInvalidPage  = "page must be a positive integer"
	MsgInvalidLimit = "limit must be between 1 and 100"
)

// PostStore is the persistence the post service needs. *repo.PostRepo satisfies it.
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error)
	Update(ctx context.Context, id, ownerID string, patch models.PostPatch, now time.Time) (*models.Post, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// CreatePostInput is the body of a create request.
type CreatePostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"imageURL"`
}

// ListParams selects a page of posts. Page is 1-based. A non-empty UserID
// restricts the listing to that user's posts.
type ListParams struct {
	Search string
	UserID string
	Page   int
	Limit  int
}

type PostService struct {
	store PostStore
	now   func() time.Time
	newID func() string
}

func NewPostService(store PostStore) *PostService {
	return &PostService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create validates the input and stores a new post owned by author.
func (s *PostService) Create(ctx context.Context, author *models.User, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" || in.Content == "" {
		return nil, apperr.InvalidInput(msgRequired)
	}
	if err := checkTitle(in.Title); err != nil {
		return nil, err
	}
	if err := checkContent(in.Content); err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Post{
		ID:        s.newID(),
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  strings.TrimSpace(in.ImageURL),
		Username:  author.Username,
		UserID:    author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// List returns a page of posts matching the optional search, newest first.
func (s *PostService) List(ctx context.Context, params ListParams) (*models.PostPage, error) {
	if params.Page < 1 {
		return nil, apperr.InvalidInput(MsgInvalidPage)
	}
	if params.Limit < 1 || params.Limit > MaxLimit {
		return nil, apperr.InvalidInput(MsgInvalidLimit)
	}

	posts, total, err := s.store.List(ctx, models.PostQuery{
		Search: strings.TrimSpace(params.Search),
		UserID: strings.TrimSpace(params.UserID),
		Limit:  params.Limit,
		Offset: pageOffset(params.Page, params.Limit),
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if posts == nil {
		posts = []models.Post{}
	}

	return &models.PostPage{
		Posts:      posts,
		Total:      total,
		Page:       params.Page,
		TotalPages: totalPages(total, params.Limit),
	}, nil
}

// Get returns a single post. Malformed ids are reported as not found.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.NotFound(msgPostNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Update applies the provided fields of patch. Only the owner may update a
// post; owner and username never change.
func (s *PostService) Update(ctx context.Context, caller *models.User, id string, patch models.PostPatch) (*models.Post, error) {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if err := checkTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Content != nil {
		if err := checkContent(*patch.Content); err != nil {
			return nil, err
		}
	}
	if patch.ImageURL != nil {
		trimmed := strings.TrimSpace(*patch.ImageURL)
		patch.ImageURL = &trimmed
	}

	p, err := s.store.Update(ctx, id, caller.ID, patch, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		// deleted between the ownership check and the write
		return nil, apperr.NotFound(msgPostNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// Delete permanently removes a post owned by caller.
func (s *PostService) Delete(ctx context.Context, caller *models.User, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	err := s.store.Delete(ctx, id, caller.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msgPostNotFound)
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *PostService) owned(ctx context.Context, caller *models.User, id string) (*models.Post, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != caller.ID {
		return nil, apperr.Forbidden(msgNotOwner)
	}
	return p, nil
}

func checkTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < TitleMinLen || n > TitleMaxLen {
		return apperr.InvalidInput(msgTitleLength)
	}
	return nil
}

func checkContent(content string) error {
	if utf8.RuneCountInString(content) < ContentMinLen {
		return apperr.InvalidInput(msgContentShort)
	}
	return nil
}

// pageOffset saturates at math.MaxInt so a huge page reads past the end
// instead of wrapping to a negative offset.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func totalPages(total, limit int) int {
	if total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
