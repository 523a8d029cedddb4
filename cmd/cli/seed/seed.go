package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/crucial707/quill/cmd/cli/client"
	"github.com/crucial707/quill/cmd/cli/output"
	"github.com/spf13/cobra"
)

const seedPassword = "quill-seed-pass"

// InitSeed registers the seed command on the root command.
func InitSeed(rootCmd *cobra.Command) {
	rootCmd.AddCommand(seedCmd())
}

func seedCmd() *cobra.Command {
	var users, posts int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the API with fake users and posts",
		Long:  "Registers fake users through the API and publishes fake posts as them, round robin. Useful for local demos.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if users < 1 {
				return fmt.Errorf("--users must be at least 1")
			}
			if posts < 0 {
				return fmt.Errorf("--posts must not be negative")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			s := &seeder{faker: gofakeit.New(seed)}
			return s.run(cmd, users, posts)
		},
	}

	cmd.Flags().IntVar(&users, "users", 3, "Number of users to create")
	cmd.Flags().IntVar(&posts, "posts", 12, "Number of posts to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 picks one from the clock)")
	return cmd
}

type seeder struct {
	faker *gofakeit.Faker
}

type account struct {
	username string
	email    string
	api      *client.Client
}

func (s *seeder) run(cmd *cobra.Command, users, posts int) error {
	ctx := cmd.Context()
	accounts := make([]account, 0, users)
	for i := 0; i < users; i++ {
		acc, err := s.createAccount(ctx, i)
		if err != nil {
			return err
		}
		accounts = append(accounts, acc)
	}

	for i := 0; i < posts; i++ {
		acc := accounts[i%len(accounts)]
		if _, err := acc.api.CreatePost(ctx, s.title(), s.content(), s.imageURL()); err != nil {
			return fmt.Errorf("create post %d as %s: %w", i+1, acc.username, err)
		}
	}

	rows := make([][]any, 0, len(accounts))
	for _, acc := range accounts {
		rows = append(rows, []any{acc.username, acc.email, seedPassword})
	}
	w := cmd.OutOrStdout()
	output.RenderTable(w, []string{"Username", "Email", "Password"}, rows)
	fmt.Fprintf(w, "Seeded %d users and %d posts.\n", len(accounts), posts)
	return nil
}

func (s *seeder) createAccount(ctx context.Context, i int) (account, error) {
	username := s.username(i)
	email := strings.ToLower(username) + "@example.com"

	anon := client.New("")
	if _, err := anon.Register(ctx, username, email, seedPassword); err != nil {
		return account{}, fmt.Errorf("register %s: %w", username, err)
	}
	login, err := anon.Login(ctx, email, seedPassword)
	if err != nil {
		return account{}, fmt.Errorf("login %s: %w", username, err)
	}
	return account{username: username, email: email, api: client.New(login.Token)}, nil
}

// username is alphanumeric and 3-32 characters. The base is letters only, so
// the numeric suffix keeps names unique within a run.
func (s *seeder) username(i int) string {
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s.faker.Username())
	if len(base) > 24 {
		base = base[:24]
	}
	if len(base) < 3 {
		base = "writer"
	}
	return fmt.Sprintf("%s%d%d", base, i, s.faker.Number(10, 99))
}

func (s *seeder) title() string {
	t := strings.TrimSuffix(s.faker.Sentence(s.faker.Number(3, 8)), ".")
	if r := []rune(t); len(r) > 120 {
		t = string(r[:120])
	}
	for len([]rune(t)) < 5 {
		t += " post"
	}
	return t
}

func (s *seeder) content() string {
	c := s.faker.Paragraph(s.faker.Number(2, 4), 4, 12, "\n\n")
	for len([]rune(c)) < 50 {
		c += " " + s.faker.Sentence(10)
	}
	return c
}

// imageURL leaves roughly a third of posts without a cover.
func (s *seeder) imageURL() string {
	if s.faker.Number(1, 3) == 1 {
		return ""
	}
	return fmt.Sprintf("https://picsum.photos/seed/%s/800/400", s.faker.LetterN(8))
}
