package main

import (
	"flag"
	"os"

	"github.com/HavvokLab/autarco/config"
	"github.com/HavvokLab/autarco/infra"
	"github.com/HavvokLab/autarco/model"
	"github.com/HavvokLab/autarco/pkg/logger"
	"github.com/HavvokLab/autarco/pkg/util"
	"github.com/HavvokLab/autarco/repo"
	"github.com/rs/zerolog/log"
)

func init() {
	logger.Init("credential.log")
}

// Usage:
//
//	credential -action list
//	credential -action add -username a@b.c -password secret -owner TRUE
//	credential -action update -id 1 -password changed
//	credential -action delete -id 1
func main() {
	action := flag.String("action", "list", "list, add, update or delete")
	id := flag.Int64("id", 0, "Credential id for update and delete")
	username := flag.String("username", "", "Autarco account e-mail")
	password := flag.String("password", "", "Autarco account password")
	owner := flag.String("owner", "", "Owner of the credential")
	dbPath := flag.String("db", "", "Path to the sqlite database, defaults to the config value")
	flag.Parse()

	path := *dbPath
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.GetConfig().Database.Path
		}
	}

	db, err := infra.NewGormDB(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open credential database")
	}
	credRepo := repo.NewAutarcoCredentialRepo(db)

	switch *action {
	case "list":
		credentials, err := credRepo.FindAll()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list credentials")
		}
		for i := range credentials {
			credentials[i].Password = util.Mask(credentials[i].Password)
		}
		util.PrintJSON(credentials)
	case "add":
		if util.IsEmpty(*username) || util.IsEmpty(*password) {
			log.Fatal().Msg("username and password must be provided")
		}
		credential := &model.AutarcoCredential{Username: *username, Password: *password, Owner: *owner}
		if err := credRepo.Create(credential); err != nil {
			log.Fatal().Err(err).Msg("failed to add credential")
		}
		log.Info().Int64("id", credential.ID).Str("username", credential.Username).Msg("credential added")
	case "update":
		credential := &model.AutarcoCredential{Username: *username, Password: *password, Owner: *owner}
		if err := credRepo.Update(*id, credential); err != nil {
			log.Fatal().Err(err).Int64("id", *id).Msg("failed to update credential")
		}
		log.Info().Int64("id", *id).Msg("credential updated")
	case "delete":
		if err := credRepo.Delete(*id); err != nil {
			log.Fatal().Err(err).Int64("id", *id).Msg("failed to delete credential")
		}
		log.Info().Int64("id", *id).Msg("credential deleted")
	default:
		log.Fatal().Str("action", *action).Msg("unknown action")
	}
}
