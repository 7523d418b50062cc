// Command seed replays a JSON fixture of ratings and download counts against
// a running ratings API. Useful for demos and manual testing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/PromptVault/ratings-api/internal/client"
)

type templateFixture struct {
	Downloads int64         `json:"downloads"`
	Ratings   []ratingEntry `json:"ratings"`
}

type ratingEntry struct {
	UserHash string  `json:"userHash"`
	Rating   int     `json:"rating"`
	Comment  *string `json:"comment"`
}

func main() {
	var (
		addr    = flag.String("addr", "http://localhost:8080", "base URL of the ratings api")
		data    = flag.String("data", "seed.json", "path to fixture file")
		timeout = flag.Duration("timeout", 10*time.Second, "per-request timeout")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	file, err := os.ReadFile(*data)
	if err != nil {
		logger.Fatal().Err(err).Msg("read fixture")
	}

	var fixtures map[string]templateFixture
	if err := json.Unmarshal(file, &fixtures); err != nil {
		logger.Fatal().Err(err).Msg("parse fixture")
	}

	api, err := client.New(*addr, *timeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init api client")
	}

	ctx := context.Background()
	if _, err := api.Health(ctx); err != nil {
		logger.Fatal().Err(err).Str("addr", *addr).Msg("api not reachable")
	}

	for templateID, fixture := range fixtures {
		for _, entry := range fixture.Ratings {
			result, err := api.SubmitRating(ctx, client.SubmitRatingParams{
				TemplateID: templateID,
				UserHash:   entry.UserHash,
				Rating:     entry.Rating,
				Comment:    entry.Comment,
			})
			if err != nil {
				logger.Error().Err(err).Str("template_id", templateID).Str("user_hash", entry.UserHash).Msg("submit rating")
				continue
			}
			logger.Info().
				Str("template_id", templateID).
				Float64("average", result.AverageRating).
				Int64("count", result.RatingCount).
				Msg("rating submitted")
		}

		for i := int64(0); i < fixture.Downloads; i++ {
			if _, err := api.RecordDownload(ctx, templateID); err != nil {
				logger.Error().Err(err).Str("template_id", templateID).Msg("record download")
				break
			}
		}
		if fixture.Downloads > 0 {
			logger.Info().Str("template_id", templateID).Int64("downloads", fixture.Downloads).Msg("downloads recorded")
		}
	}

	logger.Info().Int("templates", len(fixtures)).Msg("seed complete")
}
