package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/text"
	"github.com/mattn/go-runewidth"
	"github.com/mrnavastar/patchman/api"
	"github.com/mrnavastar/patchman/services"
	"github.com/mrnavastar/patchman/util"
	"github.com/mrnavastar/patchman/util/fileutils"
	"github.com/mrnavastar/patchman/version"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
)

func logger(c *cli.Context) *pterm.Logger {
	if c.Bool("debug") {
		return pterm.DefaultLogger.WithLevel(pterm.LogLevelDebug)
	}
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)
}

// openProfile loads the patch list of the selected instance.
func openProfile(c *cli.Context) (*services.ProfileController, error) {
	instance, err := services.ActiveInstance(c.String("instance"))
	if err != nil {
		return nil, err
	}

	cache := c.String("cache")
	if cache == "" {
		home, err := fileutils.HomeDir()
		if err != nil {
			return nil, err
		}
		cache = filepath.Join(home, "cache")
	}

	log := logger(c)
	catalog := api.NewMojangCatalog(api.NewClient(), cache, log)
	if url := c.String("meta"); url != "" {
		catalog.ManifestURL = url
	}
	ctrl := services.NewProfileController(services.Options{
		Instance: instance,
		Catalog:  catalog,
		Bundle:   api.Bundle{},
		Logger:   log,
	})
	if _, err := ctrl.Reload(c.Context); err != nil {
		return nil, err
	}
	return ctrl, nil
}

func width(s string, min int) int {
	if w := runewidth.StringWidth(s); w > min {
		return w
	}
	return min
}

func printPatches(profile *version.Profile) {
	lid, lname, lversion := len("ID:"), len("NAME:"), len("VERSION:")
	for _, patch := range profile.Patches {
		lid = width(patch.ID(), lid)
		lname = width(patch.Name(), lname)
		lversion = width(patch.Version(), lversion)
	}

	fmt.Println()
	fmt.Println(text.AlignDefault.Apply("ID:", lid+2) + text.AlignDefault.Apply("NAME:", lname+2) + text.AlignDefault.Apply("VERSION:", lversion+2) + "TYPE:")
	for _, patch := range profile.Patches {
		kind := patch.Kind.String()
		if patch.IsJarMod() {
			kind = "jar mod"
		}
		id := patch.ID()
		if !patch.Moveable() {
			id = text.Bold.Sprint(id)
		}
		fmt.Println(text.AlignDefault.Apply(id, lid+2) + text.AlignDefault.Apply(patch.Name(), lname+2) + text.AlignDefault.Apply(patch.Version(), lversion+2) + kind)
	}
	fmt.Println()
}

func printProfile(profile *version.Profile) {
	rows := [][2]string{
		{"Main class", profile.MainClass},
		{"Applet class", profile.AppletClass},
		{"Assets", profile.Assets},
		{"Arguments", profile.MinecraftArguments},
		{"Launcher version", fmt.Sprint(profile.MinimumLauncherVersion)},
		{"Tweakers", strings.Join(profile.Tweakers, ", ")},
		{"Traits", strings.Join(profile.TraitList(), ", ")},
		{"Vanilla", fmt.Sprint(profile.IsVanilla())},
	}
	lkey := 0
	for _, row := range rows {
		lkey = width(row[0], lkey)
	}
	fmt.Println()
	for _, row := range rows {
		fmt.Println(text.AlignDefault.Apply(text.Bold.Sprint(row[0]+":"), lkey+2) + row[1])
	}
	fmt.Println()
	fmt.Println(text.Bold.Sprint("Libraries:"))
	for _, lib := range profile.ActiveNormalLibs() {
		fmt.Println("  " + lib.RawName())
	}
	for _, lib := range profile.ActiveNativeLibs() {
		fmt.Println("  " + lib.RawName() + text.Underline.Sprint(" (native)"))
	}
	for _, jarMod := range profile.JarMods {
		fmt.Println("  " + jarMod.Name + text.Underline.Sprint(" (jar mod)"))
	}
	fmt.Println()
}

func main() {
	app := &cli.App{
		Name:  "patchman",
		Usage: "Manage the version patches of your instances",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "instance", Aliases: []string{"i"}, Usage: "instance to operate on (default: active instance)", EnvVars: []string{"PATCHMAN_INSTANCE"}},
			&cli.StringFlag{Name: "cache", Usage: "version metadata cache directory", EnvVars: []string{"PATCHMAN_CACHE"}},
			&cli.StringFlag{Name: "meta", Usage: "version manifest URL", EnvVars: []string{"PATCHMAN_META_URL"}},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Setup patchman on your system",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return errors.New("usage: init <home>")
					}
					if err := fileutils.Setup(c.Args().Get(0)); err != nil {
						return err
					}
					pterm.Success.Println("Done.")
					return nil
				},
			},
			{
				Name:  "make",
				Usage: "Create a new instance",
				Action: func(c *cli.Context) error {
					args := c.Args()
					if args.Len() != 3 {
						return errors.New("usage: make <name> <root> <version>")
					}
					instance, err := services.CreateInstance(args.Get(0), args.Get(1), args.Get(2))
					if errors.Is(err, services.ErrInstanceExists) {
						pterm.Warning.Println("Instance with that name already exists")
						return nil
					}
					if err != nil {
						return err
					}
					pterm.Success.Println("Created " + instance.Name + " in " + instance.Root)
					return nil
				},
			},
			{
				Name:  "use",
				Usage: "Select the active instance",
				Action: func(c *cli.Context) error {
					name := c.Args().Get(0)
					if err := services.SetActiveInstance(name); err != nil {
						return err
					}
					pterm.Info.Println("Now modifying " + name)
					return nil
				},
			},
			{
				Name:    "instances",
				Aliases: []string{"lsi"},
				Usage:   "List all instances",
				Action: func(c *cli.Context) error {
					state, err := fileutils.LoadAppState()
					if err != nil {
						return err
					}

					lname := len("NAME:")
					lversion := len("VERSION:")
					for _, instance := range state.Instances {
						lname = width(instance.Name, lname)
						lversion = width(instance.VersionID, lversion)
					}

					fmt.Println()
					fmt.Println(text.AlignDefault.Apply("NAME:", lname+2) + text.AlignDefault.Apply("VERSION:", lversion+2) + "ROOT:")
					for _, instance := range state.Instances {
						name := instance.Name
						if instance.Name == state.ActiveInstance {
							name = text.Bold.Sprint(name)
						}
						fmt.Println(text.AlignDefault.Apply(name, lname+2) + text.AlignDefault.Apply(instance.VersionID, lversion+2) + instance.Root)
					}
					fmt.Println()
					return nil
				},
			},
			{
				Name:    "ls",
				Aliases: []string{"list"},
				Usage:   "List the patches of the instance in application order",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					printPatches(ctrl.Profile())
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Show the resolved profile",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					printProfile(ctrl.Profile())
					return nil
				},
			},
			{
				Name:  "move",
				Usage: "Move a patch up or down",
				Action: func(c *cli.Context) error {
					args := c.Args()
					var direction services.Direction
					switch args.Get(1) {
					case "up":
						direction = services.MoveUp
					case "down":
						direction = services.MoveDown
					default:
						return errors.New("usage: move <id> up|down")
					}
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					change, err := ctrl.MoveByID(args.Get(0), direction)
					if err != nil {
						return err
					}
					if !change.Changed() {
						pterm.Warning.Println(args.Get(0) + " can't be moved " + args.Get(1))
						return nil
					}
					printPatches(ctrl.Profile())
					return nil
				},
			},
			{
				Name:    "rm",
				Aliases: []string{"remove"},
				Usage:   "Remove patches",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					for _, id := range c.Args().Slice() {
						if _, err := ctrl.RemoveByID(id); err != nil {
							if errors.Is(err, version.ErrPatchNotFound) || errors.Is(err, version.ErrNotMoveable) {
								pterm.Warning.Println(err)
								continue
							}
							return err
						}
						pterm.Success.Println("Removed " + id)
					}
					return nil
				},
			},
			{
				Name:  "revert",
				Usage: "Remove every patch that is not part of vanilla",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					if _, err := ctrl.RevertToVanilla(); err != nil {
						return err
					}
					pterm.Success.Println("Reverted to vanilla")
					return nil
				},
			},
			{
				Name:  "jarmod",
				Usage: "Install jar mods",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					if _, err := ctrl.InstallJarMods(c.Args().Slice()); err != nil {
						return err
					}
					printPatches(ctrl.Profile())
					return nil
				},
			},
			{
				Name:  "loader",
				Usage: "Install a mod loader patch (fabric or quilt)",
				Action: func(c *cli.Context) error {
					args := c.Args()
					loader, loaderVersion := args.Get(0), args.Get(1)
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}

					source := api.NewLoaders(api.NewClient())
					if loaderVersion == "" {
						switch loader {
						case "fabric":
							loaderVersion, err = source.GetLatestFabricLoaderVersion(c.Context)
						case "quilt":
							loaderVersion, err = source.GetLatestQuiltLoaderVersion(c.Context)
						}
						if err != nil {
							return err
						}
					}
					if _, err := ctrl.InstallLoader(c.Context, source, loader, loaderVersion); err != nil {
						return err
					}
					pterm.Success.Println("Installed " + loader + " " + loaderVersion)
					return nil
				},
			},
			{
				Name:  "reset-order",
				Usage: "Forget the patch order and use the order the patches declare",
				Action: func(c *cli.Context) error {
					ctrl, err := openProfile(c)
					if err != nil {
						return err
					}
					if _, err := ctrl.ResetOrder(c.Context); err != nil {
						return err
					}
					printPatches(ctrl.Profile())
					return nil
				},
			},
		},
	}

	util.Fatal(app.RunContext(context.Background(), os.Args))
}
