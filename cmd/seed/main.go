package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/recipebook-backend/internal/app"
	"github.com/yungbote/recipebook-backend/internal/seed"
)

func main() {
	var file string
	var dryRun bool
	var limit int
	var timeout time.Duration
	flag.StringVar(&file, "file", "recipes.yaml", "YAML file with recipes to load")
	flag.BoolVar(&dryRun, "dry-run", false, "validate and print recipes without writing them")
	flag.IntVar(&limit, "limit", 0, "limit number of recipes loaded")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for each write to be confirmed")
	flag.Parse()

	recipes, err := seed.LoadFile(file)
	if err != nil {
		fmt.Printf("load seed file: %v\n", err)
		os.Exit(1)
	}
	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}

	if dryRun {
		for _, agg := range recipes {
			fmt.Printf("[dry-run] %q ingredients=%d steps=%d\n", agg.Recipe.Name, len(agg.Ingredients), len(agg.Steps))
		}
		return
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	application.Start()

	ctx := context.Background()
	res := seed.Run(ctx, application.Services.Recipes, recipes, timeout, application.Log)

	closeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_ = application.Close(closeCtx)

	fmt.Printf("done; written=%d rejected=%d failed=%d\n", res.Written, res.Rejected, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
