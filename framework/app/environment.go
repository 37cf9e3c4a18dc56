package app

import (
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"
)

// Environment describes the running binary.
type Environment struct {
	Module    string `json:"module"`
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	Revision  string `json:"revision"`
	Go        string `json:"go"`
	Platform  string `json:"platform"`
}

// CurrentEnvironment reads build info embedded by the Go toolchain.
func CurrentEnvironment() Environment {
	env := Environment{
		Version:   "(devel)",
		BuildTime: "unknown",
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return env
	}
	env.Module = info.Main.Path
	if info.Main.Version != "" {
		env.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.time":
			env.BuildTime = s.Value
		case "vcs.revision":
			env.Revision = s.Value
		}
	}
	return env
}

func (e Environment) log(logger *zap.Logger) {
	logger.Info("Bootstrapping application",
		zap.String("module", e.Module),
		zap.String("version", e.Version),
		zap.String("build_time", e.BuildTime),
		zap.String("revision", e.Revision))
	logger.Info("Runtime", zap.String("go", e.Go), zap.String("platform", e.Platform))
}
