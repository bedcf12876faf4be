package domainfx

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"storeman/pkg/http/handler"
	"storeman/pkg/rules"
)

const (
	ConfigRulesFile            = "rules.file"
	ConfigRulesBackupRetention = "rules.backup_retention"
)

type RuleStoreConfig struct {
	File            string
	BackupRetention int
}

func RuleStoreConfigProvider(v *viper.Viper) *RuleStoreConfig {
	file := v.GetString(ConfigRulesFile)
	if file == "" {
		file = "music-storage-rules-unified.csv"
	}

	// Zero retention keeps every rule backup; pruning this family is
	// strictly opt-in.
	return &RuleStoreConfig{
		File:            file,
		BackupRetention: v.GetInt(ConfigRulesBackupRetention),
	}
}

func RuleStore(config *RuleStoreConfig, logger *logrus.Logger) (*rules.Store, handler.RuleStore) {
	store := rules.NewStore(logger, config.File, config.BackupRetention)

	return store, store
}
