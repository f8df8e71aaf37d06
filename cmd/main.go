package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/brettbedarf/fsapi"
	"github.com/brettbedarf/fsapi/config"
	"github.com/brettbedarf/fsapi/filesystem"
	"github.com/brettbedarf/fsapi/internal/util"
	"github.com/brettbedarf/fsapi/mount"
	"github.com/brettbedarf/fsapi/server"
)

func main() {
	// Parse command line arguments
	var (
		configPath string
		rootDir    string
		addr       string
		mountPoint string
		verbose    int
		umount     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	flag.StringVar(&configPath, "c", "", "--config (shorthand)")
	flag.StringVar(&rootDir, "root", "", "Directory to serve; every request is confined to it")
	flag.StringVar(&rootDir, "r", "", "--root (shorthand)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address")
	flag.StringVar(&addr, "a", "", "--addr (shorthand)")
	flag.StringVar(&mountPoint, "mount", "", "Optional directory where the root is mirrored through FUSE")
	flag.StringVar(&mountPoint, "m", "", "--mount (shorthand)")
	flag.BoolVar(&umount, "umount", false,
		"Unmount the mirror first if needed before mounting again. Useful for debuggers that don't exit properly.")
	flag.BoolVar(&umount, "u", false, "--umount (shorthand)")
	flag.IntVar(&verbose, "verbose", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")
	flag.IntVar(&verbose, "v", config.InfoVerbose, "--verbose (shorthand)")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Layer config: defaults < file < env < flags
	cfg := config.NewDefaultConfig()
	var fileErr error
	if configPath != "" {
		var override *config.ConfigOverride
		if override, fileErr = config.LoadConfigOverrideFile(configPath); fileErr == nil {
			cfg.Merge(override)
		}
	}
	envOverride, envErr := config.OverrideFromEnv(os.LookupEnv)
	if envErr == nil {
		cfg.Merge(envOverride)
	}
	flags := &config.ConfigOverride{}
	if set["root"] || set["r"] {
		flags.RootDir = &rootDir
	}
	if set["addr"] || set["a"] {
		flags.Addr = &addr
	}
	if set["mount"] || set["m"] {
		flags.MountPoint = &mountPoint
	}
	if set["verbose"] || set["v"] {
		flags.LogLvl = &verbose
	}
	cfg.Merge(flags)

	// Initialize logger
	util.InitializeLogger(cfg.LogLvl, cfg.LogFormat)
	logger := util.GetLogger("main")
	if fileErr != nil {
		logger.Fatal().Err(fileErr).Str("config", configPath).Msg("Failed to load config file")
	}
	if envErr != nil {
		logger.Fatal().Err(envErr).Msg("Invalid environment configuration")
	}
	logger.Info().
		Str("root", cfg.RootDir).
		Str("addr", cfg.Addr).
		Str("mnt", cfg.MountPoint).
		Bool("debug", cfg.Debug).
		Msg("Filesystem API initializing")

	resolver, err := fsapi.NewResolver(cfg.RootDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid root directory")
	}
	store := filesystem.NewFS(cfg, resolver)
	srv := server.New(cfg, resolver, store)

	var mirror *mount.Mirror
	if cfg.MountPoint != "" {
		// Try unmount if requested
		if umount { // send cli command
			cmd := exec.Command("fusermount", "-u", cfg.MountPoint)
			// we ignore error here if not already mounted
			cmd.Run() // nolint:errcheck
		}
		mirror = mount.New(resolver.RootDir(), cfg.MountOptions)
		if err := mirror.Serve(); err != nil {
			logger.Fatal().Err(err).Str("mountpoint", cfg.MountPoint).Msg("Failed to mount root mirror")
		}
	}

	// Serve
	served := srv.ServeAsync()

	// Setup signal handling for graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	exitCode := 0
	select {
	case sig := <-signalChan:
		logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
			exitCode = 1
		}
		cancel()
		<-served
	case err := <-served:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
			exitCode = 1
		}
	}

	// Unmount the mirror
	if mirror != nil {
		if err := mirror.Unmount(); err != nil {
			logger.Error().Err(err).Msg("Failed to unmount root mirror")
			exitCode = 1
		} else {
			logger.Info().Msg("Root mirror unmounted successfully")
		}
	}
	os.Exit(exitCode)
}
