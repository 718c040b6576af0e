package config

import "github.com/smartnews/newsrec/internal/catalog"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.CatalogPath == "" {
		cfg.Data.CatalogPath = "data/news_articles.csv"
	}
	if cfg.Data.SimilarityPath == "" {
		cfg.Data.SimilarityPath = "data/similarity.csv"
	}
	if cfg.Data.InteractionsPath == "" {
		cfg.Data.InteractionsPath = "data/user_rated_articles.csv"
	}
	defaultAliases := catalog.DefaultColumnAliases()
	if cfg.Columns.Title == nil {
		cfg.Columns.Title = defaultAliases.Title
	}
	if cfg.Columns.Description == nil {
		cfg.Columns.Description = defaultAliases.Description
	}
	if cfg.Columns.URL == nil {
		cfg.Columns.URL = defaultAliases.URL
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 10
	}
	if cfg.Search.FallbackSize == 0 {
		cfg.Search.FallbackSize = 8
	}
	if cfg.Search.FallbackSeed == 0 {
		cfg.Search.FallbackSeed = 42
	}
	if cfg.Recommend.Alpha == 0 {
		cfg.Recommend.Alpha = 0.7
	}
	if cfg.Recommend.Beta == 0 {
		cfg.Recommend.Beta = 0.3
	}
	if cfg.Recommend.TopK == 0 {
		cfg.Recommend.TopK = 6
	}
}
