// Command main runs the database seeder for miniblog.
package main

import (
	"context"
	"flag"
	"log"

	"miniblog/internal/cache"
	"miniblog/internal/config"
	"miniblog/internal/database"
	"miniblog/internal/observability"
	"miniblog/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.NumPosts, "posts", opts.NumPosts, "Number of posts to create")
	flag.IntVar(&opts.MaxLikes, "max-likes", opts.MaxLikes, "Maximum likes per post")
	flag.IntVar(&opts.MaxComments, "max-comments", opts.MaxComments, "Maximum comments per post")
	flag.Int64Var(&opts.RandSeed, "seed", 0, "Random seed (0 for time based)")
	fixtures := flag.String("fixtures", "", "YAML fixtures file to load instead of fake data")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Seeding through the repositories bumps the list cache version when Redis is configured.
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	var summary *seed.Summary
	if *fixtures != "" {
		fx, err := seed.LoadFixtures(*fixtures)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		summary, err = s.ApplyFixtures(ctx, fx)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
	} else {
		summary, err = s.Run(ctx)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	log.Printf("Done: %d users, %d posts, %d likes, %d comments", summary.Users, summary.Posts, summary.Likes, summary.Comments)
	if *fixtures == "" {
		log.Printf("All generated users have the password: %s", seed.DefaultPassword)
	}
}
