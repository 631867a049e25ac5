// Command seed applies a master data catalog to the configured database.
//
//	seed -catalog config/catalog.example.yaml
//	seed -hash-admin-key 's3cret'   # prints a bcrypt hash for ADMIN_KEY_HASH
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/officing/catalog"
	"github.com/cppla/officing/config"
	"github.com/cppla/officing/models"
	"github.com/cppla/officing/utils"
)

func main() {
	var (
		catalogPath = flag.String("catalog", "config/catalog.example.yaml", "catalog YAML file")
		configPath  = flag.String("config", config.DefaultPath, "config JSON file")
		migrate     = flag.Bool("migrate", true, "create or update tables first")
		hashKey     = flag.String("hash-admin-key", "", "print the bcrypt hash of an admin key and exit")
	)
	flag.Parse()

	if *hashKey != "" {
		hash, err := utils.HashPassword(*hashKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	_, cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.Set(cfg)
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	log := utils.Logger
	defer func() { _ = log.Sync() }()

	c, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Fatal("load catalog", zap.String("path", *catalogPath), zap.Error(err))
	}

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if *migrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	sum, err := catalog.Apply(ctx, db, c)
	if err != nil {
		log.Fatal("apply catalog", zap.Error(err))
	}
	log.Info("catalog applied",
		zap.String("path", *catalogPath),
		zap.Int("prizes", sum.Prizes),
		zap.Int("quests", sum.Quests),
		zap.Int("titles", sum.Titles),
		zap.Int("shop_items", sum.ShopItems),
	)
}
