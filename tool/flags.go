package tool

import (
	"flag"

	"github.com/moyoez/nanalyzer-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseBaseURL, "useBaseURL", "", "override analysis backend base URL (also "+BaseURLEnv+")")
	flag.IntVar(&cfg.UsePort, "usePort", 0, "override local agent API port")
	flag.StringVar(&cfg.UseUserID, "useUserID", "", "owner id sent with uploads (also "+UserIDEnv+")")
	flag.BoolVar(&cfg.UseAutoLive, "useAutoLive", false, "open the live channel automatically after an upload completes")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, skip unix socket notifications")
	flag.Parse()
	return cfg
}
