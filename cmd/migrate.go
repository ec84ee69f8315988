package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	clientsRepo "github.com/blogsmith/blogsmith/clients/repository"
	contentRepo "github.com/blogsmith/blogsmith/content/repository"
	coreconfig "github.com/blogsmith/blogsmith/core/config"
	coreDB "github.com/blogsmith/blogsmith/core/database"
	jobsRepo "github.com/blogsmith/blogsmith/jobs/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	Run:   runMigrations,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrations(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DATABASE] %v", err)
	}

	ctx := context.Background()
	migrations := map[string]func(context.Context) error{
		"clients": clientsRepo.NewClientGormRepository(db).InitSchema,
		"posts":   contentRepo.NewPostGormRepository(db).InitSchema,
		"keyword": contentRepo.NewKeywordGormRepository(db).InitSchema,
		"jobs":    jobsRepo.NewJobGormRepository(db).InitSchema,
	}
	for name, migrate := range migrations {
		if err := migrate(ctx); err != nil {
			logrus.Fatalf("[DATABASE] Migrating %s schema: %v", name, err)
		}
		logrus.Infof("[DATABASE] Migrated %s schema", name)
	}
	logrus.Infoln("[DATABASE] Migration complete")
}
