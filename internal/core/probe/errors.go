package probe

import (
	"errors"
	"fmt"
)

// ErrorKind 致命错误分类，每类对应一个进程退出码
type ErrorKind int

const (
	KindPlatform      ErrorKind = iota + 1 // 平台不支持 Raw Socket
	KindConfiguration                      // 参数非法
	KindSocket                             // 创建 Raw Socket 失败 (权限/系统错误)
	KindResolution                         // 域名解析失败
)

// 进程退出码
const (
	ExitOK          = 0
	ExitPlatform    = 1
	ExitNonPositive = 2
	ExitPortRange   = 3
	ExitSocket      = 4
	ExitResolution  = 5
)

var (
	// ErrNonPositive 数值参数必须为正
	ErrNonPositive = errors.New("you can only use positive numbers for port, count, interval and timeout")
	// ErrPortRange 端口超出范围
	ErrPortRange = errors.New("port number must be in range from 1 to 65534")
	// ErrUnsupportedPlatform 非 Linux 平台
	ErrUnsupportedPlatform = errors.New("tcping is only available on linux")
)

// Error 启动阶段的致命错误
// 探测超时和无关报文不是错误，它们以 Outcome 的形式返回
type Error struct {
	Kind     ErrorKind
	ExitCode int
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, code int, op string, err error) *Error {
	return &Error{Kind: kind, ExitCode: code, Op: op, Err: err}
}

// ExitCodeOf 返回错误对应的退出码，非 *Error 返回 1
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.ExitCode
	}
	return 1
}

// IsKind 判断错误链中是否包含指定分类
func IsKind(err error, kind ErrorKind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}
