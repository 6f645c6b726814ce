package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"Forum_Hub/internal/blob"
	"Forum_Hub/internal/config"
	"Forum_Hub/internal/handler"
	"Forum_Hub/internal/middleware"
	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/realtime"
	"Forum_Hub/internal/repository"
	"Forum_Hub/internal/repository/memory"
	"Forum_Hub/internal/repository/mysql"
	"Forum_Hub/internal/repository/redis"
	"Forum_Hub/internal/router"
	"Forum_Hub/internal/service"

	"github.com/joho/godotenv"
)

type repos struct {
	posts         repository.PostRepository
	comments      repository.CommentRepository
	replies       repository.ReplyRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	outbox        repository.OutboxRepository
}

func main() {
	// .env 不存在时按纯环境变量跑
	_ = godotenv.Load()
	cfg := config.Load()

	// 命令行优先于环境变量
	storageFlag := flag.String("storage", "", "storage backend: mysql or memory")
	flag.Parse()
	if *storageFlag != "" {
		cfg.Storage = *storageFlag
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	pkg.SetJWTSecrets(cfg.AccessSecret, cfg.RefreshSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := buildRepos(cfg)
	if err != nil {
		logger.Error("storage init failed", "err", err)
		os.Exit(1)
	}

	if err = redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		logger.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer redis.Close()

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		logger.Error("blob store init failed", "err", err)
		os.Exit(1)
	}

	// kafka 未配置时事件仅打日志
	sender := service.LogSender(logger)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			logger.Error("kafka init failed", "err", err)
			os.Exit(1)
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	forumSvc := service.NewForumService(r.posts, r.comments, r.replies, r.users, r.outbox, logger)

	hub := realtime.NewHub(countSource{r.notifications}, logger)
	go hub.Run(ctx)

	notificationSvc := service.NewNotificationService(r.notifications, r.users, r.comments, r.replies, hub, logger)

	smtpCfg := pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
	emailSvc := service.NewEmailService(smtpCfg, &redis.EmailRepository{})
	userSvc := service.NewUserService(r.users, &redis.UserRepository{}, emailSvc)

	relayer := service.NewOutboxRelayer(r.outbox, sender, logger)
	go relayer.Run(ctx)

	engine := router.InitRouter(router.Deps{
		Forum:         handler.NewForumHandler(forumSvc, notificationSvc, blobs, logger),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		User:          handler.NewUserHandler(userSvc),
		Email:         handler.NewEmailHandler(emailSvc),
		Auth:          middleware.AuthMiddleware(),
		WS:            realtime.ServeWS(hub),
	})

	logger.Info("listening", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
	if err := engine.Run(cfg.HTTPAddr); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func buildRepos(cfg *config.Config) (*repos, error) {
	if cfg.Storage == "memory" {
		s := memory.New()
		return &repos{
			posts:         s.Posts(),
			comments:      s.Comments(),
			replies:       s.Replies(),
			notifications: s.Notifications(),
			users:         s.Users(),
			outbox:        s.Outbox(),
		}, nil
	}

	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		return nil, err
	}
	// 自动建表（开发阶段 OK）
	if err := mysql.DB.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Comment{},
		&model.Reply{},
		&model.Notification{},
		&model.ForumOutbox{},
	); err != nil {
		return nil, err
	}

	return &repos{
		posts:         mysql.NewPostRepository(),
		comments:      mysql.NewCommentRepository(),
		replies:       mysql.NewReplyRepository(),
		notifications: mysql.NewNotificationRepository(),
		users:         mysql.NewUserRepository(),
		outbox:        mysql.NewOutboxRepository(),
	}, nil
}

func buildBlobStore(cfg *config.Config) (blob.Store, error) {
	if cfg.Blob == "minio" {
		return blob.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return blob.NewDiskStore(cfg.MediaDir)
}

// countSource 把通知仓储适配成 hub 需要的未读数来源
type countSource struct {
	notifications repository.NotificationRepository
}

func (s countSource) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.notifications.CountUnread(ctx, recipientID)
}
