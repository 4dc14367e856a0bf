package main

import (
	"github.com/kageban/kageban/config"
	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/routes"
	"github.com/kageban/kageban/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}, &models.PageView{})

	if cfg.GenerateDummyData {
		if err := utils.SeedDummyData(db); err != nil {
			utils.Sugar.Warnf("seeding demo data failed: %v", err)
		}
	}

	r := routes.SetupRouter(cfg, db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		if err := utils.GraceServerTLS(":"+cfg.AppPort, cfg.TLSCert, cfg.TLSKey, r); err != nil {
			utils.Sugar.Fatalf("server stopped with error: %v", err)
		}
		return
	}
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
