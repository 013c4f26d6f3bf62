// Command main runs the demo data seeder for FashFolio.
package main

import (
	"context"
	"flag"
	"log"

	"fashfolio/internal/bootstrap"
	"fashfolio/internal/config"
	"fashfolio/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "Number of users to create")
	flag.IntVar(&opts.OutfitsPerUser, "outfits", opts.OutfitsPerUser, "Outfits per user")
	flag.IntVar(&opts.FollowsPerUser, "follows", opts.FollowsPerUser, "Follows per user")
	flag.IntVar(&opts.LikesPerOutfit, "likes", opts.LikesPerOutfit, "Likes per public outfit")
	flag.IntVar(&opts.CommentsPerPost, "comments", opts.CommentsPerPost, "Comments per public outfit")
	flag.IntVar(&opts.NumProducts, "products", opts.NumProducts, "Number of studio products")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	log.Printf("Target: %d users, %d outfits each, %d products", opts.NumUsers, opts.OutfitsPerUser, opts.NumProducts)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	sum, err := seed.NewSeeder(store.Repos, opts).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done: %d users, %d follows, %d outfits, %d likes, %d comments, %d products",
		sum.Users, sum.Follows, sum.Outfits, sum.Likes, sum.Comments, sum.Products)
}
