package container

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
	infraCache "library-backend/internal/infrastructure/cache"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/cache"

	"library-backend/internal/domains/author"
	authorHandler "library-backend/internal/domains/author/handler"
	authorRepo "library-backend/internal/domains/author/repository"
	authorService "library-backend/internal/domains/author/service"

	"library-backend/internal/domains/book"
	bookHandler "library-backend/internal/domains/book/handler"
	bookRepo "library-backend/internal/domains/book/repository"
	bookService "library-backend/internal/domains/book/service"

	"library-backend/internal/domains/member"
	memberHandler "library-backend/internal/domains/member/handler"
	memberRepo "library-backend/internal/domains/member/repository"
	memberService "library-backend/internal/domains/member/service"

	"library-backend/internal/domains/borrowing"
	borrowingHandler "library-backend/internal/domains/borrowing/handler"
	borrowingJob "library-backend/internal/domains/borrowing/job"
	borrowingRepo "library-backend/internal/domains/borrowing/repository"
	borrowingService "library-backend/internal/domains/borrowing/service"
)

const cachePrefix = "library:"

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. The API, the worker and
// the librarian CLI all build one.
type Container struct {
	// Infrastructure
	Config  *config.Config
	DB      *database.PostgresDB
	Reports *sqlx.DB
	Redis   *infraCache.RedisClient
	Cache   cache.Cache

	// Queue is nil when the worker is disabled.
	Queue *asynq.Client

	// Repositories
	AuthorRepo    author.Repository
	BookRepo      book.Repository
	MemberRepo    member.Repository
	BorrowingRepo borrowing.Repository

	// Services
	Engine           *borrowingService.Engine
	AuthorService    author.Service
	BookService      book.Service
	MemberService    member.Service
	BorrowingService borrowing.Service

	// Handlers
	AuthorHandler    *authorHandler.AuthorHandler
	BookHandler      *bookHandler.BookHandler
	MemberHandler    *memberHandler.MemberHandler
	BorrowingHandler *borrowingHandler.BorrowingHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer connects the stores and wires every layer in order:
// infrastructure, repositories, services, handlers.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().
		Str("env", cfg.App.Environment).
		Int("ceiling", cfg.Library.Ceiling).
		Str("fine_rate", cfg.Library.FineRate.String()).
		Bool("worker", c.Queue != nil).
		Msg("container initialized")
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c.DB = database.NewPostgresDB(c.Config.Database)
	if err := c.DB.Connect(connectCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := c.DB.HealthCheck(connectCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	reports, err := database.OpenSQLX(connectCtx, c.Config.Database)
	if err != nil {
		return fmt.Errorf("failed to open reporting connection: %w", err)
	}
	c.Reports = reports

	// Redis is optional: a failed connect degrades to no cache.
	c.Cache = cache.Noop{}
	if c.Config.Redis.CacheEnabled {
		rc := infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
		if err := rc.Connect(connectCtx); err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
			_ = rc.Close()
		} else {
			c.Redis = rc
			c.Cache = infraCache.NewRedisCache(rc.Client, cachePrefix)
		}
	}

	if c.Config.Worker.Enabled {
		c.Queue = asynq.NewClient(c.RedisOpt())
	}
	return nil
}

func (c *Container) initRepositories() {
	c.AuthorRepo = authorRepo.NewPostgresRepository(c.DB.Pool, c.Cache)
	c.BookRepo = bookRepo.NewPostgresRepository(c.DB, c.Cache)
	c.MemberRepo = memberRepo.NewPostgresRepository(c.DB.Pool, c.Cache)
	c.BorrowingRepo = borrowingRepo.NewReportRepository(c.Reports)
}

func (c *Container) initServices() {
	lib := c.Config.Library

	c.Engine = borrowingService.NewEngine(
		borrowingRepo.NewPostgresGateway(c.DB),
		borrowingService.WithCeiling(lib.Ceiling),
		borrowingService.WithFineRate(lib.FineRate),
	)
	c.AuthorService = authorService.NewAuthorService(c.AuthorRepo)
	c.BookService = bookService.NewBookService(c.BookRepo)
	c.MemberService = memberService.NewMemberService(c.MemberRepo, lib.Ceiling)
	c.BorrowingService = borrowingService.NewBorrowingService(
		c.Engine, c.BorrowingRepo, c.Cache,
		borrowingService.WithSweepBatch(lib.SweepBatch),
	)
}

func (c *Container) initHandlers() {
	var enqueuer borrowingHandler.SweepEnqueuer
	if c.Queue != nil {
		enqueuer = borrowingJob.NewEnqueuer(c.Queue)
	}

	c.AuthorHandler = authorHandler.NewAuthorHandler(c.AuthorService)
	c.BookHandler = bookHandler.NewBookHandler(c.BookService)
	c.MemberHandler = memberHandler.NewMemberHandler(c.MemberService)
	c.BorrowingHandler = borrowingHandler.NewBorrowingHandler(c.BorrowingService, enqueuer)
}

// ========================================
// HELPERS
// ========================================

// RegisterRoutes mounts every domain's endpoints on rg.
func (c *Container) RegisterRoutes(rg *gin.RouterGroup) {
	c.AuthorHandler.RegisterRoutes(rg)
	c.BookHandler.RegisterRoutes(rg)
	c.MemberHandler.RegisterRoutes(rg)
	c.BorrowingHandler.RegisterRoutes(rg)
}

// RedisOpt is the asynq connection for the client, server and scheduler.
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup releases every connection the container opened.
func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue client")
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if c.Reports != nil {
		if err := c.Reports.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close reporting connection")
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
	log.Info().Msg("container resources released")
}
