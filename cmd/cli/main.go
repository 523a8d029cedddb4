package main

import (
	"fmt"
	"os"

	"github.com/crucial707/quill/cmd/cli/auth"
	"github.com/crucial707/quill/cmd/cli/posts"
	"github.com/crucial707/quill/cmd/cli/root"
	"github.com/crucial707/quill/cmd/cli/seed"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	posts.InitPosts(rootCmd)
	seed.InitSeed(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
