package posts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/quill/cmd/cli/client"
	"github.com/crucial707/quill/cmd/cli/output"
	"github.com/crucial707/quill/internal/models"
	"github.com/spf13/cobra"
)

// InitPosts registers the posts command group on the root command.
func InitPosts(rootCmd *cobra.Command) {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and manage blog posts",
	}
	postsCmd.AddCommand(listCmd(), getCmd(), createCmd(), updateCmd(), deleteCmd(), uploadImageCmd())
	rootCmd.AddCommand(postsCmd)
}

// ==========================
// List Posts
// ==========================
func listCmd() *cobra.Command {
	var search string
	var page, limit int
	var mine, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := client.ListOptions{Search: search, Page: page, Limit: limit}
			c := client.New("")
			if mine {
				var err error
				if c, err = client.Authenticated(); err != nil {
					return err
				}
				me, err := c.Me(cmd.Context())
				if err != nil {
					return err
				}
				opts.UserID = me.ID
			}

			result, err := c.ListPosts(cmd.Context(), opts)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return output.PrintJSON(w, result)
			}

			rows := make([][]any, 0, len(result.Posts))
			for _, p := range result.Posts {
				rows = append(rows, []any{p.ID, output.Truncate(p.Title, 40), p.Username, p.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			output.RenderTable(w, []string{"ID", "Title", "Author", "Created"}, rows)
			fmt.Fprintf(w, "Page %d of %d (%d posts)\n", result.Page, result.TotalPages, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by title or author (case-insensitive)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 6, "Posts per page (1-100)")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only list posts written by the logged-in user")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

// ==========================
// Get Post
// ==========================
func getCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.New("").GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), p)
			}
			printPost(cmd, p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output raw JSON")
	return cmd
}

// ==========================
// Create Post
// ==========================
func createCmd() *cobra.Command {
	var title, content, imageURL string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			p, err := c.CreatePost(cmd.Context(), title, content, imageURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title (5-120 characters)")
	cmd.Flags().StringVar(&content, "content", "", "Post body (at least 50 characters)")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "Optional cover image URL")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

// ==========================
// Update Post
// ==========================
func updateCmd() *cobra.Command {
	var title, content, imageURL string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit one of your posts; only the flags you pass are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.PostPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("content") {
				patch.Content = &content
			}
			if flags.Changed("image-url") {
				patch.ImageURL = &imageURL
			}
			if patch.Title == nil && patch.Content == nil && patch.ImageURL == nil {
				return errors.New("nothing to update: pass --title, --content or --image-url")
			}

			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			p, err := c.UpdatePost(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated post %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New body")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "New cover image URL (empty clears it)")
	return cmd
}

// ==========================
// Delete Post
// ==========================
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			if err := c.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s\n", args[0])
			return nil
		},
	}
}

// ==========================
// Upload Cover Image
// ==========================
func uploadImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <file>",
		Short: "Upload a cover image and print its URL for --image-url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Authenticated()
			if err != nil {
				return err
			}
			imageURL, err := c.UploadImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), imageURL)
			return nil
		},
	}
}

func printPost(cmd *cobra.Command, p *models.Post) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, p.Title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(p.Title))))
	fmt.Fprintf(w, "by %s on %s\n", p.Username, p.CreatedAt.Local().Format("January 2, 2006"))
	if p.ImageURL != "" {
		fmt.Fprintf(w, "cover: %s\n", p.ImageURL)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, p.Content)
}
