package api

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	MojangManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	FabricMetaURL     = "https://meta.fabricmc.net/v2"
	QuiltMetaURL      = "https://meta.quiltmc.org/v3"
)

// NewClient returns the HTTP client shared by the metadata fetchers.
func NewClient() *resty.Client {
	return resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetHeader("User-Agent", "patchman")
}

type Version struct {
	Version string
	Stable  bool
}
