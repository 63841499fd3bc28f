package error

import "errors"

var (
	ErrDebuggerIsClosed           = errors.New("debug is closed")
	ErrProgramIsRunningOptionFail = errors.New("The program is running")
	// ErrEvalInProgress 同一个进程同一时刻只允许一个求值请求
	ErrEvalInProgress = errors.New("evaluation is already in progress")
	// ErrReferenceNotFound 变量引用不存在或已经因为程序恢复执行而失效
	ErrReferenceNotFound = errors.New("variable reference not found")
	// ErrFrameNotFound 栈帧编号超出当前线程的栈帧范围
	ErrFrameNotFound = errors.New("stack frame not found")
	// ErrValueUnavailable 变量值不可读取，作为单项软失败记录，不中断遍历
	ErrValueUnavailable = errors.New("value is unavailable")
)
