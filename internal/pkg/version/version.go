// ### 发布流程
// 1. **更新版本号**：修改 `internal/pkg/version/version.go`
// 2. **构建时注入**：-ldflags "-X tcping/internal/pkg/version.GitCommit=..."

package version

import "runtime"

var (
	Version    = "1.2.0" // 版本号 -- 发布时候更新版本号
	APIVersion = "1.0"
	BuildTime  string
	GitCommit  string
	GoVersion  = runtime.Version()
)

func GetVersion() string {
	return Version
}

// Info 版本信息，供 /version 接口使用
type Info struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	BuildTime  string `json:"build_time,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	GoVersion  string `json:"go_version"`
}

func GetInfo() Info {
	return Info{
		Version:    Version,
		APIVersion: APIVersion,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  GoVersion,
	}
}
