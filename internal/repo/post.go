package repo

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/quill/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

type PostRepo struct {
	DB *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

const postColumns = `id, title, content, image_url, username, user_id, created_at, updated_at`

// ========================
// CREATE POST
// ========================

func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Title, p.Content, p.ImageURL, p.Username, p.UserID, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// ========================
// GET POST BY ID
// ========================

func (r *PostRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ========================
// LIST POSTS (SEARCH + PAGINATION)
// ========================

// List returns one page of posts, newest first, and the number of posts
// matching the filters ignoring pagination. A search matches title or username
// as a case-insensitive substring; UserID keeps only that owner's posts.
func (r *PostRepo) List(ctx context.Context, q models.PostQuery) ([]models.Post, int, error) {
	var conds []string
	args := []any{}
	if q.Search != "" {
		args = append(args, likePattern(q.Search))
		conds = append(conds, `(title ILIKE $1 OR username ILIKE $1)`)
	}
	if q.UserID != "" {
		if !validID(q.UserID) {
			return []models.Post{}, 0, nil
		}
		args = append(args, q.UserID)
		conds = append(conds, `user_id = $`+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = ` WHERE ` + strings.Join(conds, ` AND `)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	pageQuery := `SELECT ` + postColumns + ` FROM posts` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.DB.QueryContext(ctx, pageQuery, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	return posts, total, rows.Err()
}

// ========================
// UPDATE POST (OWNER SCOPED)
// ========================

// Update applies the non-nil fields of patch to the post owned by ownerID.
// ErrNotFound means no post has that id and owner.
func (r *PostRepo) Update(ctx context.Context, id, ownerID string, patch models.PostPatch, now time.Time) (*models.Post, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	row := r.DB.QueryRowContext(ctx,
		`UPDATE posts
		 SET title = COALESCE($1, title),
		     content = COALESCE($2, content),
		     image_url = COALESCE($3, image_url),
		     updated_at = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+postColumns,
		optional(patch.Title), optional(patch.Content), optional(patch.ImageURL), now, id, ownerID,
	)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ========================
// DELETE POST (OWNER SCOPED)
// ========================

func (r *PostRepo) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(s rowScanner) (*models.Post, error) {
	var p models.Post
	err := s.Scan(&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.Username, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds an ILIKE pattern matching s literally anywhere in the value.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
