package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrnavastar/patchman/version"
)

const FabricUID = "net.fabricmc"

func (l *Loaders) GetLatestFabricLoaderVersion(ctx context.Context) (string, error) {
	var loaderVersions []Version
	resp, err := l.client.R().SetContext(ctx).SetResult(&loaderVersions).Get(l.FabricURL + "/versions/loader")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetching fabric loader versions: %s", resp.Status())
	}

	for _, loaderVersion := range loaderVersions {
		if loaderVersion.Stable {
			return loaderVersion.Version, nil
		}
	}
	return "", errors.New("failed to find a stable version")
}

// FabricPatch fetches the Fabric launcher profile for the game and loader
// version and turns it into a patch document.
func (l *Loaders) FabricPatch(ctx context.Context, gameVersion string, loaderVersion string) (*version.VersionFile, error) {
	url := l.FabricURL + "/versions/loader/" + gameVersion + "/" + loaderVersion + "/profile/json"
	f, err := l.profile(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fabric %s: %w", loaderVersion, err)
	}
	f.FileID = FabricUID
	f.Name = "Fabric Loader"
	f.Version = loaderVersion
	return f, nil
}
