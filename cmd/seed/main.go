// Package main provides a tool to seed the database with demo data.
//
// This creates a demo user with a small paper catalog, tags, library
// entries, and a public list for trying out the API without an arXiv
// round trip.
//
// Usage:
//
//	DATA_PATH=~/paperdeck go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/paperdeckapp/paperdeck-server/internal/auth"
	"github.com/paperdeckapp/paperdeck-server/internal/domain"
	"github.com/paperdeckapp/paperdeck-server/internal/id"
	"github.com/paperdeckapp/paperdeck-server/internal/store"
)

const (
	demoEmail    = "demo@paperdeck.app"
	demoPassword = "paperdeck-demo"
)

type seedPaper struct {
	arxivID    string
	title      string
	abstract   string
	authors    []string
	categories []string
	published  string // RFC 3339 date
}

var seedPapers = []seedPaper{
	{
		arxivID:    "1706.03762",
		title:      "Attention Is All You Need",
		abstract:   "The dominant sequence transduction models are based on complex recurrent or convolutional neural networks. We propose a new simple network architecture, the Transformer, based solely on attention mechanisms.",
		authors:    []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit", "Llion Jones", "Aidan N. Gomez", "Lukasz Kaiser", "Illia Polosukhin"},
		categories: []string{"cs.CL", "cs.LG"},
		published:  "2017-06-12",
	},
	{
		arxivID:    "1512.03385",
		title:      "Deep Residual Learning for Image Recognition",
		abstract:   "Deeper neural networks are more difficult to train. We present a residual learning framework to ease the training of networks that are substantially deeper than those used previously.",
		authors:    []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren", "Jian Sun"},
		categories: []string{"cs.CV"},
		published:  "2015-12-10",
	},
	{
		arxivID:    "1406.2661",
		title:      "Generative Adversarial Networks",
		abstract:   "We propose a new framework for estimating generative models via an adversarial process, in which we simultaneously train two models: a generative model G and a discriminative model D.",
		authors:    []string{"Ian J. Goodfellow", "Jean Pouget-Abadie", "Mehdi Mirza", "Bing Xu", "David Warde-Farley", "Sherjil Ozair", "Aaron Courville", "Yoshua Bengio"},
		categories: []string{"stat.ML", "cs.LG"},
		published:  "2014-06-10",
	},
	{
		arxivID:    "1810.04805",
		title:      "BERT: Pre-training of Deep Bidirectional Transformers for Language Understanding",
		abstract:   "We introduce a new language representation model called BERT, which stands for Bidirectional Encoder Representations from Transformers.",
		authors:    []string{"Jacob Devlin", "Ming-Wei Chang", "Kenton Lee", "Kristina Toutanova"},
		categories: []string{"cs.CL"},
		published:  "2018-10-11",
	},
	{
		arxivID:    "2005.14165",
		title:      "Language Models are Few-Shot Learners",
		abstract:   "We train GPT-3, an autoregressive language model with 175 billion parameters, and test its performance in the few-shot setting.",
		authors:    []string{"Tom B. Brown", "Benjamin Mann", "Nick Ryder", "Melanie Subbiah"},
		categories: []string{"cs.CL"},
		published:  "2020-05-28",
	},
}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/paperdeck")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user := ensureDemoUser(ctx, s)
	papers := seedCatalog(ctx, s)
	seedLibraryAndTags(ctx, s, user, papers)
	seedList(ctx, s, user, papers)

	fmt.Println("\nDone. Log in with:")
	fmt.Printf("  email:    %s\n", demoEmail)
	fmt.Printf("  password: %s\n", demoPassword)
}

func ensureDemoUser(ctx context.Context, s *store.Store) *domain.User {
	if existing, err := s.GetUserByEmail(ctx, demoEmail); err == nil {
		fmt.Printf("Demo user already exists: %s\n", existing.ID)
		return existing
	}

	passwordHash, err := auth.HashPassword(demoPassword)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		log.Fatalf("Failed to generate user ID: %v", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        demoEmail,
		PasswordHash: passwordHash,
		DisplayName:  "Demo User",
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}

	if err := s.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	fmt.Printf("Created demo user: %s\n", user.ID)
	return user
}

func seedCatalog(ctx context.Context, s *store.Store) []*domain.Paper {
	papers := make([]*domain.Paper, 0, len(seedPapers))

	for _, sp := range seedPapers {
		if existing, err := s.GetPaperByArxivID(ctx, sp.arxivID); err == nil {
			papers = append(papers, existing)
			continue
		}

		published, err := time.Parse("2006-01-02", sp.published)
		if err != nil {
			log.Fatalf("Bad seed date %q: %v", sp.published, err)
		}

		now := time.Now()
		p := &domain.Paper{
			ArxivID:     sp.arxivID,
			Title:       sp.title,
			Abstract:    sp.abstract,
			Authors:     sp.authors,
			Categories:  sp.categories,
			PublishedAt: published,
			RevisedAt:   published,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.CreatePaper(ctx, p); err != nil {
			log.Fatalf("Failed to create paper %s: %v", sp.arxivID, err)
		}

		fmt.Printf("Created paper %d: %s\n", p.ID, p.Title)
		papers = append(papers, p)
	}

	return papers
}

func seedLibraryAndTags(ctx context.Context, s *store.Store, user *domain.User, papers []*domain.Paper) {
	now := time.Now()

	for i, p := range papers {
		wantToRead := i%2 == 1
		if _, err := s.UpsertLibraryEntry(ctx, user.ID, p.ID, &wantToRead); err != nil {
			log.Fatalf("Failed to add paper %d to library: %v", p.ID, err)
		}
	}
	fmt.Printf("Added %d papers to the demo library\n", len(papers))

	tags := []struct {
		name  string
		color string
	}{
		{"transformers", "#ff7700"},
		{"classics", "#2266cc"},
	}

	for i, spec := range tags {
		tagID, err := id.Generate("tag")
		if err != nil {
			log.Fatalf("Failed to generate tag ID: %v", err)
		}

		tag := &domain.Tag{
			ID:        tagID,
			OwnerID:   user.ID,
			Name:      spec.name,
			Color:     spec.color,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.CreateTag(ctx, tag); err != nil {
			fmt.Printf("Tag %q already exists, skipping\n", spec.name)
			continue
		}

		// First tag on the first two papers, second tag on the rest
		for j, p := range papers {
			if (i == 0) == (j < 2) {
				if err := s.AddTagToPaper(ctx, tag.ID, p.ID); err != nil {
					log.Fatalf("Failed to tag paper %d: %v", p.ID, err)
				}
			}
		}
		fmt.Printf("Created tag %q\n", spec.name)
	}
}

func seedList(ctx context.Context, s *store.Store, user *domain.User, papers []*domain.Paper) {
	listID, err := id.Generate("list")
	if err != nil {
		log.Fatalf("Failed to generate list ID: %v", err)
	}

	now := time.Now()
	l := &domain.List{
		ID:          listID,
		OwnerID:     user.ID,
		Name:        "Deep Learning Landmarks",
		Description: "Papers that shaped the field",
		Public:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, p := range papers {
		l.PaperIDs = append(l.PaperIDs, p.ID)
	}

	if err := s.CreateList(ctx, l); err != nil {
		log.Fatalf("Failed to create list: %v", err)
	}

	fmt.Printf("Created public list %q with %d papers\n", l.Name, len(l.PaperIDs))
}
