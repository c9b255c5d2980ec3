package bootstrap

import (
	"context"
	"log"

	"docquery-be/internal/config"
	"docquery-be/internal/controller"
	"docquery-be/internal/pkg/logger"
	"docquery-be/internal/repository/unitofwork"
	"docquery-be/internal/service"
	"docquery-be/pkg/embedding"
	"docquery-be/pkg/llm/factory"
	"docquery-be/pkg/retrieval/engine"
	"docquery-be/pkg/retrieval/sparse"
	"docquery-be/pkg/retrieval/synthesis"

	pktNats "docquery-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SearchController controller.ISearchController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
			cfg.Ai.EmbeddingTimeout,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.EmbeddingTimeout)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	// NATS analytics forwarding is best effort, the pipeline works without it.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis answer cache, also best effort.
	var rdb *redis.Client
	if opt, err := redis.ParseURL(cfg.App.RedisURL); err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Answer cache disabled", err)
	} else {
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 5. Retrieval Pipeline
	traceLogger := logger.NewIsolatedLogger("logs/retrieval.log")
	corpus := service.NewCorpusAccessor(uowFactory)
	queryEmbedder := engine.NewQueryEmbedder(embeddingProvider, cfg.Ai.EmbeddingTimeout, sysLogger)
	sparseRetriever := sparse.NewRetriever(corpus, sysLogger)
	synthesizer := synthesis.NewSynthesizer(llmProvider)

	engineCfg := engine.DefaultConfig()
	engineCfg.SparseTimeout = cfg.Search.SparseTimeout
	engineCfg.SynthesisTimeout = cfg.Ai.SynthesisTimeout

	searchEngine := engine.New(
		corpus,
		queryEmbedder,
		sparseRetriever,
		synthesizer,
		engineCfg,
		sysLogger,
		traceLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.SearchEventName, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.SearchEventName,
		uowFactory,
		natsPub,
		sysLogger,
	)

	searchService := service.NewSearchService(
		searchEngine,
		uowFactory,
		publisherService,
		rdb,
		cfg.Search.AnswerCacheTTL,
		sysLogger,
	)

	// 7. Controllers
	searchController := controller.NewSearchController(searchService)

	return &Container{
		SearchController: searchController,
		ConsumerService:  consumerService,
	}
}
