package constants

// StoppedReasonType 程序停止类型
type StoppedReasonType string

const (
	BreakpointStopped StoppedReasonType = "breakpoint"
	StepStopped       StoppedReasonType = "step"
	EvalStopped       StoppedReasonType = "eval"
	ExitedNormally    StoppedReasonType = "exited-normally"
)

// ScopeName 作用域名称
type ScopeName string

// Local: 当前栈帧中的参数和局部变量，闭包捕获的变量平铺以后也归到这里。
// Object: 针对特定对象的作用域，包含了对象的成员。
const (
	ScopeLocal  ScopeName = "Locals"
	ScopeObject ScopeName = "Object"
)
