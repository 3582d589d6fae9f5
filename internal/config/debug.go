package config

import "os"

func IsDebug() bool {
	return os.Getenv("ONYX_DEBUG") == "1"
}
