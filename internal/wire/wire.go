package wire

import (
	"Watchtower/internal/api"
	"Watchtower/internal/api/config"
	"Watchtower/internal/api/handler"
	"Watchtower/internal/job"
	"Watchtower/internal/pkg/cron"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/pkg/kafka"
	"Watchtower/internal/pkg/minio"
	mongopkg "Watchtower/internal/pkg/mongo"
	"Watchtower/internal/pkg/quota"
	"Watchtower/internal/pkg/xapi"
	"Watchtower/internal/repository"
	"Watchtower/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	CronMgr  *cron.Manager
	Tracker  *quota.Tracker
	Producer kafka.RunEventProducer
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	orgRepo := repository.NewOrgRepo(db)
	postRepo := repository.NewPostRepo(db)
	snapshotRepo := repository.NewSnapshotRepo(db)
	growthRepo := repository.NewGrowthRepo(db)
	cursorRepo := repository.NewCursorRepo(db)
	runRepo := mongopkg.NewSyncRunRepo(mongoDB)
	esRepo := es.NewPostRepo(es.Client)

	xClient := xapi.NewClient(cfg.XAPI)
	tracker := quota.New(quotaConfig(cfg.Sync))
	archiver := minio.NewArchiver()

	producer, err := kafka.NewRunEventProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}

	syncService := service.NewSyncService(
		orgRepo, postRepo, cursorRepo, runRepo, esRepo,
		xClient, tracker, archiver, producer,
		cfg.Sync, 100,
	)
	snapshotService := service.NewSnapshotService(orgRepo, snapshotRepo, xClient, tracker)
	growthService := service.NewGrowthService(orgRepo, snapshotRepo, growthRepo)
	orgService := service.NewOrgService(orgRepo, esRepo)
	postService := service.NewPostService(orgRepo, postRepo, esRepo)
	authService := service.NewAuthService(cfg.Admin)

	cronMgr := cron.NewCronManager(
		job.NewSyncJob(syncService),
		job.NewSnapshotJob(snapshotService),
		job.NewGrowthJob(growthService),
		syncService,
		cfg.Sync.IntervalMinutes,
	)

	handlers := &api.HandlersGroup{
		AuthHandler:   handler.NewAuthHandler(authService),
		OrgHandler:    handler.NewOrgHandler(orgService),
		PostHandler:   handler.NewPostHandler(postService),
		GrowthHandler: handler.NewGrowthHandler(growthService, snapshotService),
		SyncHandler:   handler.NewSyncHandler(syncService, cronMgr),
		WsHandler:     handler.NewWsHandler(cronMgr),
	}

	router := api.SetupRouter(handlers)

	return &ApplicationContainer{
		Router:   router,
		DB:       db,
		CronMgr:  cronMgr,
		Tracker:  tracker,
		Producer: producer,
	}, nil
}

// quotaConfig 把配置里的配额参数换算成 tracker 配置，缺省值兜底
func quotaConfig(sync config.SyncConfig) quota.Config {
	cfg := quota.DefaultConfig()
	if sync.WindowRequests > 0 {
		cfg.WindowLimit = sync.WindowRequests
	}
	if sync.WindowMinutes > 0 {
		cfg.Window = time.Duration(sync.WindowMinutes) * time.Minute
	}
	if sync.MonthlyRequests > 0 {
		cfg.MonthlyRequests = sync.MonthlyRequests
	}
	if sync.MonthlyItems > 0 {
		cfg.MonthlyItems = sync.MonthlyItems
	}
	if sync.MinSpacingMs > 0 {
		cfg.MinSpacing = time.Duration(sync.MinSpacingMs) * time.Millisecond
	}
	return cfg
}
