package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authservice/internal/flagx"
	"github.com/dmitrijs2005/authservice/internal/timex"
)

// JsonConfig is the on-disk shape of the client configuration file.
type JsonConfig struct {
	ServerURL   *string         `json:"server_url"`
	SessionFile *string         `json:"session_file"`
	Timeout     *timex.Duration `json:"timeout"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.SessionFile != nil {
		cfg.SessionFile = *jc.SessionFile
	}
	if jc.Timeout != nil {
		cfg.Timeout = jc.Timeout.Duration
	}
	return nil
}
