package config

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers defaults for everything that has one, under the top level key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("assetversions.delivery.base_url", "https://assetdelivery.roblox.com/v2")
	v.SetDefault("assetversions.delivery.request_timeout", 30*time.Second)
	v.SetDefault("assetversions.probing.interval", 150*time.Millisecond)
	v.SetDefault("assetversions.probing.max_in_flight", 32)
	v.SetDefault("assetversions.probing.max_failures", 10)
	v.SetDefault("assetversions.probing.strict_exhaustion", false)
	v.SetDefault("assetversions.output.json_path", "versions.json")
	v.SetDefault("assetversions.output.text_path", "versions.txt")
	v.SetDefault("assetversions.watch.schedule", "@every 1h")
}
