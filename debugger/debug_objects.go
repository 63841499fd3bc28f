package debugger

import (
	"github.com/fansqz/dotnet-debugger/constants"
)

// StackFrame 栈帧
type StackFrame struct {
	ID   string `json:"id"`   // 栈帧id
	Name string `json:"name"` // 方法名称
}

// Variable 变量或成员
// 只描述名称和结构，值的字符串渲染由上层负责
type Variable struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Kind 成员种类：field、property、element，栈帧变量为空
	Kind string `json:"kind,omitempty"`
	// Reference 成员展开引用，空字符串表示没有可展开成员
	Reference string `json:"reference"`
	// IsStatic 是否是静态成员
	IsStatic bool `json:"isStatic,omitempty"`
	// Unavailable 值存在但无法读取
	Unavailable bool `json:"unavailable,omitempty"`
}

// StoppedEvent
// 该event表明，由于某些原因，被调试进程的执行已经停止。
type StoppedEvent struct {
	Reason constants.StoppedReasonType // 停止执行的原因
}

func NewStoppedEvent(reason constants.StoppedReasonType) *StoppedEvent {
	return &StoppedEvent{
		Reason: reason,
	}
}

// ContinuedEvent
// 该event表明debug的执行已经继续。
type ContinuedEvent struct {
}

func NewContinuedEvent() *ContinuedEvent {
	return &ContinuedEvent{}
}

// ExitedEvent
// 该event表明被调试对象已经退出并返回exit code。
type ExitedEvent struct {
	ExitCode int
	Message  string
}

func NewExitedEvent(code int, message string) *ExitedEvent {
	return &ExitedEvent{
		ExitCode: code,
		Message:  message,
	}
}

// OutputEvent
// 用户程序输出
type OutputEvent struct {
	Output string // 输出内容
}

func NewOutputEvent(output string) *OutputEvent {
	return &OutputEvent{
		Output: output,
	}
}
