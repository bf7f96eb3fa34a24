package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/Alessandro1809/blog-api/config"
	"github.com/Alessandro1809/blog-api/models"
	"github.com/Alessandro1809/blog-api/services"
)

// Development seeder: fills the posts table with fake articles covering both
// content encodings, every category, draft/published mix and accumulated
// view counts.
func main() {
	count := flag.Int("count", 25, "number of posts to generate")
	truncate := flag.Bool("truncate", false, "delete existing posts and view records first")
	seed := flag.Int64("seed", 0, "optional deterministic random seed")
	flag.Parse()

	config.Load()
	db := config.InitDatabase(&models.Post{}, &models.PostView{})

	if *seed != 0 {
		gofakeit.Seed(*seed)
	}

	if *truncate {
		if err := db.Where("1 = 1").Delete(&models.PostView{}).Error; err != nil {
			log.Fatalf("truncate post_views failed: %v", err)
		}
		if err := db.Where("1 = 1").Delete(&models.Post{}).Error; err != nil {
			log.Fatalf("truncate posts failed: %v", err)
		}
	}

	posts := services.NewPostService(db)
	created := 0
	for i := 0; i < *count; i++ {
		title := strings.TrimSuffix(gofakeit.Sentence(gofakeit.Number(3, 7)), ".")
		input := &services.CreatePostInput{
			Slug:          slugify(title) + "-" + gofakeit.LetterN(4),
			Title:         title,
			Excerpt:       gofakeit.Paragraph(1, 2, 12, " "),
			Content:       fakeContent(),
			Categorie:     gofakeit.RandomString(categoryCodes()),
			Tags:          fakeTags(),
			Status:        fakeStatus(),
			Featured:      gofakeit.Bool(),
			FeaturedImage: gofakeit.ImageURL(800, 400),
			AuthorID:      fmt.Sprintf("user_seed_author_%d", gofakeit.Number(1, 3)),
			Views:         int64(gofakeit.Number(0, 500)),
		}
		if _, err := posts.Create(input); err != nil {
			log.Printf("skipping post %q: %v", input.Slug, err)
			continue
		}
		created++
	}

	log.Printf("seeded %d posts", created)
}

// fakeContent alternates between a structured document tree and a markdown
// body with frontmatter, mirroring the two encodings found in production
// data.
func fakeContent() any {
	if gofakeit.Bool() {
		return map[string]any{
			"type": "doc",
			"content": []any{
				map[string]any{
					"type": "paragraph",
					"content": []any{
						map[string]any{"type": "text", "text": gofakeit.Paragraph(1, 3, 15, " ")},
					},
				},
			},
		}
	}
	return fmt.Sprintf("---\ntitle: %s\n---\n\n%s\n", gofakeit.BookTitle(), gofakeit.Paragraph(2, 4, 15, "\n\n"))
}

func fakeTags() []string {
	tags := make([]string, gofakeit.Number(1, 5))
	for i := range tags {
		tags[i] = strings.ToLower(gofakeit.Word())
	}
	return tags
}

func fakeStatus() string {
	if gofakeit.Number(0, 3) == 0 {
		return models.StatusDraft
	}
	return models.StatusPublished
}

func categoryCodes() []string {
	codes := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		codes[i] = c.Value
	}
	return codes
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
