package main

import "github.com/lloydmeta/assetversions/app/cmd"

func main() {
	cmd.Execute()
}

// @title AssetVersions status API
// @version 0.0.1
// @description Progress and results of the latest asset version scan

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /
