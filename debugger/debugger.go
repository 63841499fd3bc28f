package debugger

import (
	"context"
)

type NotificationCallback func(event interface{})

// Debugger
// 一次调试过程的语义检视接口：栈帧、变量、成员的名称和结构
// 进程的attach/launch、断点和单步控制由外部层负责，不在这个接口里
// 需要保证并发安全
type Debugger interface {
	// GetStackTrace 获取当前停止线程的栈帧列表
	GetStackTrace(ctx context.Context) ([]*StackFrame, error)
	// GetFrameVariables 获取某个栈帧中当前可见的变量列表
	// 参数在前，局部变量在后；闭包捕获的变量平铺成顶层变量
	GetFrameVariables(ctx context.Context, frameId string) ([]*Variable, error)
	// GetVariables 展开某个引用对应值的成员列表
	GetVariables(ctx context.Context, reference string) ([]*Variable, error)
	// Terminate 终止调试
	Terminate(ctx context.Context) error
}
