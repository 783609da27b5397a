package api

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/patchman/version"
)

const QuiltUID = "org.quiltmc"

// Loaders fetches mod loader profiles from the Fabric and Quilt meta servers.
type Loaders struct {
	FabricURL string
	QuiltURL  string

	client *resty.Client
}

func NewLoaders(client *resty.Client) *Loaders {
	if client == nil {
		client = NewClient()
	}
	return &Loaders{FabricURL: FabricMetaURL, QuiltURL: QuiltMetaURL, client: client}
}

func (l *Loaders) GetLatestQuiltLoaderVersion(ctx context.Context) (string, error) {
	var loaderVersions []Version
	resp, err := l.client.R().SetContext(ctx).SetResult(&loaderVersions).Get(l.QuiltURL + "/versions/loader")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetching quilt loader versions: %s", resp.Status())
	}
	if len(loaderVersions) == 0 {
		return "", fmt.Errorf("no quilt loader versions")
	}
	return loaderVersions[0].Version, nil
}

func (l *Loaders) QuiltPatch(ctx context.Context, gameVersion string, loaderVersion string) (*version.VersionFile, error) {
	url := l.QuiltURL + "/versions/loader/" + gameVersion + "/" + loaderVersion + "/profile/json"
	f, err := l.profile(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("quilt %s: %w", loaderVersion, err)
	}
	f.FileID = QuiltUID
	f.Name = "Quilt Loader"
	f.Version = loaderVersion
	return f, nil
}

func (l *Loaders) profile(ctx context.Context, url string) (*version.VersionFile, error) {
	resp, err := l.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: %s", url, resp.Status())
	}
	f, err := FromLauncherJSON("profile.json", resp.Body())
	if err != nil {
		return nil, err
	}
	// loader profiles inherit the game version, they only add to it
	f.Assets = ""
	f.MinecraftArguments = ""
	f.ProcessArguments = ""
	f.Vanilla = false
	return f, nil
}
